// Package drift runs the load → index → tree → diff pipeline for one invocation.
package drift

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/charmbracelet/log"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/internal/aggregate"
	"github.com/acheong08/pkgdrift/internal/diff"
	"github.com/acheong08/pkgdrift/internal/index"
	"github.com/acheong08/pkgdrift/internal/parser"
	"github.com/acheong08/pkgdrift/internal/tree"
	"github.com/acheong08/pkgdrift/internal/workspace"
	"github.com/acheong08/pkgdrift/pkg/models"
)

// Options configure a session.
type Options struct {
	Root       string                // project root
	Discover   bool                  // search upward from Root for the workspace root owning it
	Lockfile   string                // build the index from this package-lock.json instead of node_modules
	Reader     parser.ManifestReader // defaults to parser.FileReader
	Tree       tree.Options
	Transitive bool // diff every node below the roots, not just direct dependencies
}

// Session holds the project and its index. Both are read-only once opened.
type Session struct {
	Project *models.Project
	Index   *index.Index
	opts    Options
}

// CheckReport is the result of Check.
type CheckReport struct {
	Root     string                   `json:"root" yaml:"root"`
	Trees    []*models.DependencyNode `json:"trees" yaml:"trees"`
	Stats    *aggregate.TreeStats     `json:"stats" yaml:"stats"`
	Findings []aggregate.Finding      `json:"findings" yaml:"findings"`
}

// OK reports whether every dependency resolved within its range.
func (r *CheckReport) OK() bool {
	return len(r.Findings) == 0
}

// DiffReport is the result of Diff.
type DiffReport struct {
	Left    []string             `json:"left" yaml:"left"`
	Right   []string             `json:"right" yaml:"right"`
	Entries []models.DiffEntry   `json:"entries" yaml:"entries"`
	Stats   *aggregate.DiffStats `json:"stats" yaml:"stats"`
}

// Open loads the project under opts.Root and builds its index.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Reader == nil {
		opts.Reader = parser.FileReader{}
	}
	if opts.Root == "" {
		opts.Root = "."
	}

	if opts.Discover {
		root, err := workspace.FindRoot(opts.Root, opts.Reader)
		if err != nil {
			return nil, err
		}
		log.Debug("Discovered project root", "start", opts.Root, "root", root)
		opts.Root = root
	}

	project, err := workspace.LoadProject(opts.Root, opts.Reader)
	if err != nil {
		return nil, err
	}

	var ix *index.Index
	if opts.Lockfile != "" {
		ix, err = indexFromLockfile(project, opts.Lockfile)
	} else {
		ix, err = index.Build(ctx, project, opts.Reader)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Opened project", "root", project.Root, "members", len(project.Members), "installed", ix.Len())
	return &Session{Project: project, Index: ix, opts: opts}, nil
}

func indexFromLockfile(project *models.Project, path string) (*index.Index, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(project.Root, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errUtils.NotFound(path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", errUtils.ErrIO, path, err)
	}
	ix, err := index.FromLockfile(project, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ix, nil
}

// DefaultNames returns the root package followed by every workspace member.
func (s *Session) DefaultNames() []string {
	names := make([]string, 0, len(s.Project.Members)+1)
	for _, m := range s.Project.Packages() {
		names = append(names, m.Name)
	}
	return names
}

// Tree builds one tree per name. No names means the root and every member.
func (s *Session) Tree(names []string) []*models.DependencyNode {
	if len(names) == 0 {
		names = s.DefaultNames()
	}
	return tree.NewBuilder(s.Project, s.Index, s.opts.Tree).Build(names)
}

// Diff compares the trees of two sets of packages.
func (s *Session) Diff(left, right []string) *DiffReport {
	builder := tree.NewBuilder(s.Project, s.Index, s.diffTreeOptions())
	return s.report(left, builder.Build(left), right, builder.Build(right))
}

// DiffBaseline compares saved trees against the current trees of names.
func (s *Session) DiffBaseline(baseline []*models.DependencyNode, names []string) *DiffReport {
	if len(names) == 0 {
		names = s.DefaultNames()
	}
	current := tree.NewBuilder(s.Project, s.Index, s.diffTreeOptions()).Build(names)

	left := make([]string, 0, len(baseline))
	for _, n := range baseline {
		if n != nil {
			left = append(left, n.Name)
		}
	}
	return s.report(left, baseline, names, current)
}

func (s *Session) report(left []string, l []*models.DependencyNode, right []string, r []*models.DependencyNode) *DiffReport {
	entries := diff.Diff(l, r, diff.Options{Transitive: s.opts.Transitive})
	return &DiffReport{
		Left:    left,
		Right:   right,
		Entries: entries,
		Stats:   aggregate.SummarizeDiff(entries),
	}
}

// diffTreeOptions only expands the first level unless the diff is transitive.
func (s *Session) diffTreeOptions() tree.Options {
	opts := s.opts.Tree
	if !s.opts.Transitive {
		opts.MaxDepth = 1
	}
	return opts
}

// Check builds trees and lists missing and out-of-range dependencies.
func (s *Session) Check(names []string) *CheckReport {
	trees := s.Tree(names)
	findings := aggregate.Findings(trees)
	if findings == nil {
		findings = []aggregate.Finding{}
	}
	return &CheckReport{
		Root:     s.Project.Root,
		Trees:    trees,
		Stats:    aggregate.Summarize(trees),
		Findings: findings,
	}
}
