package server

import (
	"context"
	"fmt"

	log "github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/internal/aggregate"
	"github.com/acheong08/pkgdrift/internal/drift"
	"github.com/acheong08/pkgdrift/internal/tree"
)

// ProgressSender interface for sending progress updates
type ProgressSender interface {
	SendMessage(msg Message)
	SendLog(message, level string)
	SendProgress(percent int, stage, message string)
	SendError(message string, err error)
}

// Config is the project a server reports on.
type Config struct {
	Root     string
	Lockfile string
	Tree     tree.Options
}

// Pipeline runs one request against a freshly opened session
type Pipeline struct {
	config Config
	sender ProgressSender
}

// NewPipeline creates a new pipeline instance
func NewPipeline(config Config, sender ProgressSender) *Pipeline {
	return &Pipeline{config: config, sender: sender}
}

// log sends a log message both to the WebSocket client and to the console
func (p *Pipeline) log(message, level string) {
	p.sender.SendLog(message, level)

	switch level {
	case "warning":
		log.Warn(message)
	case "error":
		log.Error(message)
	default:
		log.Info(message)
	}
}

func (p *Pipeline) logf(format string, args ...any) {
	p.log(fmt.Sprintf(format, args...), "info")
}

// open loads the project and builds a new index for this request only.
func (p *Pipeline) open(ctx context.Context, opts tree.Options, transitive bool) (*drift.Session, error) {
	p.sender.SendProgress(0, "load", "Loading workspace...")
	session, err := drift.Open(ctx, drift.Options{
		Root:       p.config.Root,
		Lockfile:   p.config.Lockfile,
		Tree:       opts,
		Transitive: transitive,
	})
	if err != nil {
		return nil, err
	}
	p.sender.SendProgress(40, "index", fmt.Sprintf("Indexed %d installed packages", session.Index.Len()))
	p.logf("Project %s with %d workspace members", session.Project.Manifest.Name, len(session.Project.Members))
	return session, nil
}

func (p *Pipeline) treeOptions(depth *int, dev *bool) tree.Options {
	opts := p.config.Tree
	if depth != nil {
		opts.MaxDepth = *depth
	}
	if dev != nil {
		opts.IncludeDev = *dev
	}
	return opts
}

// RunTree builds trees and sends a tree_result message
func (p *Pipeline) RunTree(ctx context.Context, req TreeRequest) error {
	session, err := p.open(ctx, p.treeOptions(req.Depth, req.Dev), false)
	if err != nil {
		return err
	}

	p.sender.SendProgress(60, "tree", "Building dependency trees...")
	trees := session.Tree(req.Names)
	stats := aggregate.Summarize(trees)
	p.sender.SendMessage(NewTreeResultMessage(trees, stats))
	p.sender.SendProgress(100, "tree", fmt.Sprintf("Built %d trees with %d dependencies", stats.Roots, stats.Packages))
	return nil
}

// RunDiff compares two package sets and sends a diff_result message
func (p *Pipeline) RunDiff(ctx context.Context, req DiffRequest) error {
	if len(req.Left) == 0 || len(req.Right) == 0 {
		return fmt.Errorf("%w: diff needs packages on both sides", errUtils.ErrUsage)
	}

	session, err := p.open(ctx, p.treeOptions(nil, req.Dev), req.Transitive)
	if err != nil {
		return err
	}
	if err := validateNames(session, append(append([]string{}, req.Left...), req.Right...)); err != nil {
		return err
	}

	p.sender.SendProgress(60, "diff", "Comparing dependency trees...")
	report := session.Diff(req.Left, req.Right)
	p.sender.SendMessage(NewDiffResultMessage(report))
	p.sender.SendProgress(100, "diff", fmt.Sprintf("%d added, %d removed, %d changed",
		report.Stats.Added, report.Stats.Removed, report.Stats.Changed))
	return nil
}

// RunCheck sends a check_result message
func (p *Pipeline) RunCheck(ctx context.Context, req CheckRequest) error {
	session, err := p.open(ctx, p.treeOptions(req.Depth, req.Dev), false)
	if err != nil {
		return err
	}

	p.sender.SendProgress(60, "check", "Checking installed versions...")
	report := session.Check(req.Names)
	p.sender.SendMessage(NewCheckResultMessage(report))
	if report.OK() {
		p.log("All dependencies resolved within their ranges", "success")
	} else {
		p.log(fmt.Sprintf("%d dependencies missing or out of range", len(report.Findings)), "warning")
	}
	p.sender.SendProgress(100, "check", "Check complete")
	return nil
}

// validateNames rejects names that are neither project packages nor installed at the root.
func validateNames(session *drift.Session, names []string) error {
	for _, name := range names {
		if _, ok := session.Project.Package(name); ok {
			continue
		}
		if _, ok := session.Project.PackageAt(name); ok {
			continue
		}
		if _, ok := session.Index.Resolve(session.Project.Root, name); ok {
			continue
		}
		return fmt.Errorf("%w: %s", errUtils.ErrUnknownPackage, name)
	}
	return nil
}

// errorCode classifies an error for clients.
func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errUtils.ErrUnknownPackage):
		return "unknown_package"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}

	switch errUtils.GetExitCode(err) {
	case errUtils.ExitMalformed:
		return "malformed"
	case errUtils.ExitUsage:
		return "usage"
	default:
		return "io"
	}
}
