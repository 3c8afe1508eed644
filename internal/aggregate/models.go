package aggregate

import "github.com/acheong08/pkgdrift/pkg/models"

// Flags raised by Summarize.
const (
	FlagMissing     = "missing_dependencies"
	FlagUnsatisfied = "unsatisfied_ranges"
	FlagCycles      = "dependency_cycles"
	FlagTruncated   = "truncated_output"
	FlagUnknownRoot = "unknown_packages"
)

// TreeStats represents the aggregated statistics of a set of trees
type TreeStats struct {
	Roots        int                     `json:"roots" yaml:"roots"`
	UnknownRoots int                     `json:"unknown_roots" yaml:"unknown_roots"`
	Packages     int                     `json:"packages" yaml:"packages"` // nodes below the roots
	Resolved     int                     `json:"resolved" yaml:"resolved"`
	Missing      int                     `json:"missing" yaml:"missing"`
	Unsatisfied  int                     `json:"unsatisfied" yaml:"unsatisfied"`
	Cycles       int                     `json:"cycles" yaml:"cycles"`
	Truncated    int                     `json:"truncated" yaml:"truncated"`
	MaxDepth     int                     `json:"max_depth" yaml:"max_depth"`
	Distinct     map[string]int          `json:"distinct_versions" yaml:"distinct_versions"` // name -> number of distinct resolved versions
	PerRoot      map[string]*RootSummary `json:"per_root" yaml:"per_root"`
	Flags        []string                `json:"flags" yaml:"flags"`
}

// RootSummary contains the counts for a single root
type RootSummary struct {
	Version      string `json:"version,omitempty" yaml:"version,omitempty"`
	Resolved     bool   `json:"resolved" yaml:"resolved"`
	Dependencies int    `json:"dependencies" yaml:"dependencies"` // direct dependencies
	Packages     int    `json:"packages" yaml:"packages"`
	Missing      int    `json:"missing" yaml:"missing"`
	Unsatisfied  int    `json:"unsatisfied" yaml:"unsatisfied"`
}

// DiffStats counts diff entries per classification
type DiffStats struct {
	Total     int `json:"total" yaml:"total"`
	Added     int `json:"added" yaml:"added"`
	Removed   int `json:"removed" yaml:"removed"`
	Changed   int `json:"changed" yaml:"changed"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`

	// RangeChanged counts entries present on both sides with different declared ranges.
	RangeChanged int `json:"range_changed" yaml:"range_changed"`
}

// Drifted reports whether anything other than Unchanged was counted.
func (s *DiffStats) Drifted() bool {
	return s.Added+s.Removed+s.Changed > 0
}

// FindingKind says why a node was reported.
type FindingKind string

const (
	FindingMissing     FindingKind = "missing"
	FindingUnsatisfied FindingKind = "unsatisfied"
	FindingUnknown     FindingKind = "unknown"
)

// Finding is a missing or out-of-range node with the chain of names leading to it.
type Finding struct {
	Kind            FindingKind `json:"kind" yaml:"kind"`
	Name            string      `json:"name" yaml:"name"`
	RequestedRange  string      `json:"requested_range,omitempty" yaml:"requested_range,omitempty"`
	ResolvedVersion string      `json:"resolved_version,omitempty" yaml:"resolved_version,omitempty"`
	Dev             bool        `json:"dev,omitempty" yaml:"dev,omitempty"`
	Path            []string    `json:"path" yaml:"path"`
}

// Snapshot is a saved set of trees, as written by the JSON renderer.
type Snapshot struct {
	Trees []*models.DependencyNode `json:"trees" yaml:"trees"`
}
