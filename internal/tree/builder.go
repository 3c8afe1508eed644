// Package tree builds depth-limited dependency trees over a package index.
package tree

import (
	log "github.com/charmbracelet/log"

	"github.com/acheong08/pkgdrift/internal/index"
	"github.com/acheong08/pkgdrift/internal/versionreq"
	"github.com/acheong08/pkgdrift/pkg/models"
)

// Options control expansion.
type Options struct {
	MaxDepth   int  // depth of the deepest expanded node, root is 0; negative means unlimited
	IncludeDev bool // expand devDependencies of project packages
	Policy     models.MergePolicy
}

// DefaultOptions expands everything, production dependencies only.
func DefaultOptions() Options {
	return Options{MaxDepth: -1, Policy: models.DevWins}
}

// Builder turns package names into dependency trees.
type Builder struct {
	project *models.Project
	index   *index.Index
	opts    Options
}

// NewBuilder creates a builder over an index built for project.
func NewBuilder(project *models.Project, ix *index.Index, opts Options) *Builder {
	if opts.Policy == "" {
		opts.Policy = models.DevWins
	}
	return &Builder{project: project, index: ix, opts: opts}
}

// Build returns one root node per name, in order. A name is looked up as a project
// package, then as a project package directory, then in the root's node_modules.
// Unknown names become unresolved roots.
func (b *Builder) Build(names []string) []*models.DependencyNode {
	roots := make([]*models.DependencyNode, 0, len(names))
	for _, name := range names {
		roots = append(roots, b.buildRoot(name))
	}
	return roots
}

func (b *Builder) buildRoot(name string) *models.DependencyNode {
	m, ok := b.project.Package(name)
	if !ok {
		m, ok = b.project.PackageAt(name)
	}
	if ok {
		node := &models.DependencyNode{
			Name:            m.Name,
			ResolvedVersion: m.Version,
			Resolved:        true,
			Location:        m.Dir,
		}
		b.expand(node, m.Declared(b.opts.IncludeDev, b.opts.Policy), 0, make(map[string]bool))
		return node
	}

	pkg, ok := b.index.Resolve(b.project.Root, name)
	if !ok {
		log.Debug("Requested package not found", "name", name)
		return &models.DependencyNode{Name: name}
	}
	node := &models.DependencyNode{
		Name:            name,
		ResolvedVersion: pkg.Version,
		Resolved:        true,
		Location:        pkg.Location,
	}
	b.expand(node, pkg.Manifest.Declared(false, b.opts.Policy), 0, make(map[string]bool))
	return node
}

// expand attaches children for deps unless the depth limit is reached.
// path holds the (name, version) pairs from the root down to node.
func (b *Builder) expand(node *models.DependencyNode, deps []models.Dependency, depth int, path map[string]bool) {
	if len(deps) == 0 {
		return
	}
	if b.opts.MaxDepth >= 0 && depth >= b.opts.MaxDepth {
		node.Truncated = true
		return
	}

	key := pathKey(node)
	path[key] = true
	defer delete(path, key)

	node.Children = make([]*models.DependencyNode, 0, len(deps))
	for _, dep := range deps {
		node.Children = append(node.Children, b.buildChild(node.Location, dep, depth+1, path))
	}
}

func (b *Builder) buildChild(from string, dep models.Dependency, depth int, path map[string]bool) *models.DependencyNode {
	node := &models.DependencyNode{
		Name:           dep.Name,
		RequestedRange: dep.Range,
		Dev:            dep.Dev,
	}
	req := versionreq.Parse(dep.Range)

	var manifest *models.Manifest
	if pkg, ok := b.index.Resolve(from, dep.Name); ok {
		node.ResolvedVersion = pkg.Version
		node.Location = pkg.Location
		manifest = pkg.Manifest
	} else if member, ok := b.workspaceFallback(req, dep.Name); ok {
		node.ResolvedVersion = member.Version
		node.Location = member.Dir
		manifest = member
	} else {
		log.Debug("Dependency not installed", "from", from, "name", dep.Name, "range", dep.Range)
		return node
	}

	node.Resolved = true
	node.Range = req.Check(node.ResolvedVersion)
	log.Debug("Resolved dependency", "from", from, "name", dep.Name, "version", node.ResolvedVersion, "range", node.Range)

	if path[pathKey(node)] {
		node.IsCycle = true
		return node
	}
	b.expand(node, manifest.Declared(false, b.opts.Policy), depth, path)
	return node
}

// workspaceFallback links workspace: ranges to the member of that name when nothing
// is installed for it.
func (b *Builder) workspaceFallback(req versionreq.Requirement, name string) (*models.Manifest, bool) {
	if req.Kind != versionreq.KindWorkspace {
		return nil, false
	}
	return b.project.Package(name)
}

func pathKey(n *models.DependencyNode) string {
	return n.Name + "@" + n.ResolvedVersion
}
