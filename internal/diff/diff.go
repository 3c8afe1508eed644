// Package diff compares two sets of dependency trees package by package.
package diff

import (
	"sort"

	"github.com/samber/lo"

	"github.com/acheong08/pkgdrift/pkg/models"
)

// Options control what is compared.
type Options struct {
	// Transitive compares every node below the roots instead of only their direct dependencies.
	Transitive bool
}

// Diff classifies every dependency name found on either side. Entries are sorted by name.
// Diff(l, r) mirrors Diff(r, l): Added and Removed swap, the rest is identical.
func Diff(left, right []*models.DependencyNode, opts Options) []models.DiffEntry {
	lv := Flatten(left, opts.Transitive)
	rv := Flatten(right, opts.Transitive)

	names := lo.Uniq(append(lo.Keys(lv), lo.Keys(rv)...))
	sort.Strings(names)

	entries := make([]models.DiffEntry, 0, len(names))
	for _, name := range names {
		l, r := lv[name], rv[name]
		entries = append(entries, models.DiffEntry{
			Name:           name,
			Left:           l,
			Right:          r,
			Classification: classify(l, r),
		})
	}
	return entries
}

func classify(l, r *models.VersionRef) models.Classification {
	switch {
	case l == nil:
		return models.Added
	case r == nil:
		return models.Removed
	case l.Equal(r):
		return models.Unchanged
	default:
		return models.Changed
	}
}

// Flatten maps dependency names below the roots to the version they resolved to
// and the range they were declared with.
// The first occurrence in pre-order wins. Roots themselves are not included and nil
// nodes are skipped.
func Flatten(roots []*models.DependencyNode, transitive bool) map[string]*models.VersionRef {
	out := make(map[string]*models.VersionRef)
	var visit func(n *models.DependencyNode)
	visit = func(n *models.DependencyNode) {
		if n == nil {
			return
		}
		if _, seen := out[n.Name]; !seen {
			out[n.Name] = ref(n)
		}
		if !transitive {
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	for _, root := range roots {
		if root == nil {
			continue
		}
		for _, c := range root.Children {
			visit(c)
		}
	}
	return out
}

func ref(n *models.DependencyNode) *models.VersionRef {
	if !n.Resolved {
		return &models.VersionRef{Missing: true, Range: n.RequestedRange}
	}
	return &models.VersionRef{Version: n.ResolvedVersion, Range: n.RequestedRange, Status: n.Range}
}

// Filter keeps the entries with one of the given classifications.
func Filter(entries []models.DiffEntry, keep ...models.Classification) []models.DiffEntry {
	return lo.Filter(entries, func(e models.DiffEntry, _ int) bool {
		return lo.Contains(keep, e.Classification)
	})
}

// Drifted returns every entry that is not Unchanged.
func Drifted(entries []models.DiffEntry) []models.DiffEntry {
	return Filter(entries, models.Added, models.Removed, models.Changed)
}
