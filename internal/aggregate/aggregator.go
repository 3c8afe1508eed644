package aggregate

import (
	"sort"

	"github.com/acheong08/pkgdrift/internal/tree"
	"github.com/acheong08/pkgdrift/pkg/models"
)

// Aggregator walks dependency trees and accumulates statistics
type Aggregator struct {
	stats    *TreeStats
	versions map[string]map[string]bool
	flags    map[string]bool
}

// NewAggregator creates a new Aggregator instance
func NewAggregator() *Aggregator {
	return &Aggregator{
		stats: &TreeStats{
			Distinct: make(map[string]int),
			PerRoot:  make(map[string]*RootSummary),
		},
		versions: make(map[string]map[string]bool),
		flags:    make(map[string]bool),
	}
}

// Summarize aggregates a set of trees in one call
func Summarize(nodes []*models.DependencyNode) *TreeStats {
	return NewAggregator().ProcessTrees(nodes)
}

// ProcessTrees adds every node of the trees and returns the statistics so far
func (a *Aggregator) ProcessTrees(nodes []*models.DependencyNode) *TreeStats {
	tree.WalkPath(nodes, func(path []*models.DependencyNode) {
		a.processNode(path)
	})
	return a.buildStats()
}

func (a *Aggregator) processNode(path []*models.DependencyNode) {
	node := path[len(path)-1]
	depth := len(path) - 1

	if depth == 0 {
		a.processRoot(node)
		return
	}

	root := a.stats.PerRoot[path[0].Name]
	root.Packages++
	if depth == 1 {
		root.Dependencies++
	}

	a.stats.Packages++
	if depth > a.stats.MaxDepth {
		a.stats.MaxDepth = depth
	}

	if !node.Resolved {
		a.stats.Missing++
		root.Missing++
		return
	}

	a.stats.Resolved++
	a.recordVersion(node.Name, node.ResolvedVersion)
	if node.Range == models.RangeUnsatisfied {
		a.stats.Unsatisfied++
		root.Unsatisfied++
	}
	if node.IsCycle {
		a.stats.Cycles++
	}
	if node.Truncated {
		a.stats.Truncated++
	}
}

func (a *Aggregator) processRoot(node *models.DependencyNode) {
	a.stats.Roots++
	if !node.Resolved {
		a.stats.UnknownRoots++
	}
	if node.Truncated {
		a.stats.Truncated++
	}
	if _, ok := a.stats.PerRoot[node.Name]; !ok {
		a.stats.PerRoot[node.Name] = &RootSummary{
			Version:  node.ResolvedVersion,
			Resolved: node.Resolved,
		}
	}
}

func (a *Aggregator) recordVersion(name, version string) {
	seen, ok := a.versions[name]
	if !ok {
		seen = make(map[string]bool)
		a.versions[name] = seen
	}
	seen[version] = true
	a.stats.Distinct[name] = len(seen)
}

func (a *Aggregator) buildStats() *TreeStats {
	a.stats.Flags = a.detectFlags()
	return a.stats
}

func (a *Aggregator) detectFlags() []string {
	if a.stats.Missing > 0 {
		a.flags[FlagMissing] = true
	}
	if a.stats.Unsatisfied > 0 {
		a.flags[FlagUnsatisfied] = true
	}
	if a.stats.Cycles > 0 {
		a.flags[FlagCycles] = true
	}
	if a.stats.Truncated > 0 {
		a.flags[FlagTruncated] = true
	}
	if a.stats.UnknownRoots > 0 {
		a.flags[FlagUnknownRoot] = true
	}

	// Convert map to slice
	result := make([]string, 0, len(a.flags))
	for flag := range a.flags {
		result = append(result, flag)
	}
	sort.Strings(result)
	return result
}

// SummarizeDiff counts diff entries per classification
func SummarizeDiff(entries []models.DiffEntry) *DiffStats {
	stats := &DiffStats{Total: len(entries)}
	for _, e := range entries {
		if e.RangeChanged() {
			stats.RangeChanged++
		}
		switch e.Classification {
		case models.Added:
			stats.Added++
		case models.Removed:
			stats.Removed++
		case models.Changed:
			stats.Changed++
		case models.Unchanged:
			stats.Unchanged++
		}
	}
	return stats
}

// Findings lists missing and unsatisfied nodes, and requested names that matched nothing,
// in pre-order.
func Findings(nodes []*models.DependencyNode) []Finding {
	var findings []Finding
	tree.WalkPath(nodes, func(path []*models.DependencyNode) {
		node := path[len(path)-1]

		var kind FindingKind
		switch {
		case len(path) == 1 && !node.Resolved:
			kind = FindingUnknown
		case len(path) == 1:
			return
		case !node.Resolved:
			kind = FindingMissing
		case node.Range == models.RangeUnsatisfied:
			kind = FindingUnsatisfied
		default:
			return
		}

		names := make([]string, len(path))
		for i, n := range path {
			names[i] = n.Name
		}
		findings = append(findings, Finding{
			Kind:            kind,
			Name:            node.Name,
			RequestedRange:  node.RequestedRange,
			ResolvedVersion: node.ResolvedVersion,
			Dev:             node.Dev,
			Path:            names,
		})
	})
	return findings
}
