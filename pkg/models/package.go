package models

import "path/filepath"

// MergePolicy decides which range wins when a name is declared in both
// dependencies and devDependencies.
type MergePolicy string

const (
	DevWins  MergePolicy = "dev-wins"  // devDependencies override dependencies
	ProdWins MergePolicy = "prod-wins" // dependencies override devDependencies
)

// Dependency is a single declared dependency: name -> version range.
type Dependency struct {
	Name  string `json:"name" yaml:"name"`
	Range string `json:"range" yaml:"range"`
	Dev   bool   `json:"dev,omitempty" yaml:"dev,omitempty"`
}

// Manifest is a parsed package.json
type Manifest struct {
	Name            string       `json:"name" yaml:"name"`
	Version         string       `json:"version,omitempty" yaml:"version,omitempty"`
	Dependencies    []Dependency `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	DevDependencies []Dependency `json:"devDependencies,omitempty" yaml:"devDependencies,omitempty"`
	Workspaces      []string     `json:"workspaces,omitempty" yaml:"workspaces,omitempty"`
	Dir             string       `json:"dir,omitempty" yaml:"dir,omitempty"` // directory holding package.json
}

// ID returns "name@version", or just the name for unversioned packages.
func (m *Manifest) ID() string {
	if m.Version == "" {
		return m.Name
	}
	return m.Name + "@" + m.Version
}

// IsWorkspaceRoot reports whether the manifest declares workspace globs.
func (m *Manifest) IsWorkspaceRoot() bool {
	return len(m.Workspaces) > 0
}

// Range returns the declared range for name, looking at dependencies first.
func (m *Manifest) Range(name string) (string, bool) {
	for _, d := range m.Dependencies {
		if d.Name == name {
			return d.Range, true
		}
	}
	for _, d := range m.DevDependencies {
		if d.Name == name {
			return d.Range, true
		}
	}
	return "", false
}

// Declared returns the dependencies to expand for this manifest, in declaration order.
// Production dependencies come first, followed by dev dependencies that were not
// already declared. On a collision the policy picks the range; the position of the
// first declaration is kept.
func (m *Manifest) Declared(includeDev bool, policy MergePolicy) []Dependency {
	deps := make([]Dependency, len(m.Dependencies), len(m.Dependencies)+len(m.DevDependencies))
	copy(deps, m.Dependencies)
	if !includeDev {
		return deps
	}

	pos := make(map[string]int, len(deps))
	for i, d := range deps {
		pos[d.Name] = i
	}
	for _, d := range m.DevDependencies {
		d.Dev = true
		if i, ok := pos[d.Name]; ok {
			if policy != ProdWins {
				deps[i] = d
			}
			continue
		}
		pos[d.Name] = len(deps)
		deps = append(deps, d)
	}
	return deps
}

// WorkspaceMember is a package matched by one of the root manifest's workspace globs.
type WorkspaceMember struct {
	Manifest *Manifest `json:"manifest" yaml:"manifest"`
	RelPath  string    `json:"path" yaml:"path"` // slash separated, relative to the project root
}

// Project is the root manifest plus every workspace member.
type Project struct {
	Root     string            `json:"root" yaml:"root"`
	Manifest *Manifest         `json:"manifest" yaml:"manifest"`
	Members  []WorkspaceMember `json:"members" yaml:"members"`
}

// Packages returns the root manifest followed by the member manifests.
func (p *Project) Packages() []*Manifest {
	pkgs := make([]*Manifest, 0, len(p.Members)+1)
	pkgs = append(pkgs, p.Manifest)
	for _, m := range p.Members {
		pkgs = append(pkgs, m.Manifest)
	}
	return pkgs
}

// Package finds the root or a member manifest by package name.
func (p *Project) Package(name string) (*Manifest, bool) {
	for _, m := range p.Packages() {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// PackageAt finds the root or a member manifest by directory.
func (p *Project) PackageAt(dir string) (*Manifest, bool) {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(p.Root, dir)
	}
	dir = filepath.Clean(dir)
	for _, m := range p.Packages() {
		if filepath.Clean(m.Dir) == dir {
			return m, true
		}
	}
	return nil, false
}

// InstalledPackage is a package found in some node_modules directory.
type InstalledPackage struct {
	Name     string    `json:"name" yaml:"name"` // lookup name, node_modules/<name>
	Version  string    `json:"version" yaml:"version"`
	Location string    `json:"location" yaml:"location"` // real directory of the package
	Manifest *Manifest `json:"-" yaml:"-"`
}

// ID returns "name@version".
func (p *InstalledPackage) ID() string {
	return p.Name + "@" + p.Version
}

// RangeStatus says whether a resolved version satisfies the declared range.
type RangeStatus string

const (
	RangeSatisfied   RangeStatus = "satisfied"
	RangeUnsatisfied RangeStatus = "unsatisfied"
	RangeUnchecked   RangeStatus = "unchecked"
)

// DependencyNode is one edge of a built dependency tree.
// Resolved is false when nothing is installed for Name; that is a reportable state.
type DependencyNode struct {
	Name            string            `json:"name" yaml:"name"`
	RequestedRange  string            `json:"requested_range,omitempty" yaml:"requested_range,omitempty"`
	ResolvedVersion string            `json:"resolved_version,omitempty" yaml:"resolved_version,omitempty"`
	Resolved        bool              `json:"resolved" yaml:"resolved"`
	Location        string            `json:"location,omitempty" yaml:"location,omitempty"`
	Dev             bool              `json:"dev,omitempty" yaml:"dev,omitempty"`
	Range           RangeStatus       `json:"range,omitempty" yaml:"range,omitempty"`
	IsCycle         bool              `json:"cycle,omitempty" yaml:"cycle,omitempty"`
	Truncated       bool              `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Children        []*DependencyNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Version returns the resolved version and whether the node resolved at all.
func (n *DependencyNode) Version() (string, bool) {
	return n.ResolvedVersion, n.Resolved
}

// Classification of a diffed dependency.
type Classification string

const (
	Added     Classification = "added"
	Removed   Classification = "removed"
	Changed   Classification = "changed"
	Unchanged Classification = "unchanged"
)

// VersionRef is one side of a diff entry. Missing means the dependency is
// declared but nothing is installed for it. Range and Status describe the
// declaration on that side and do not take part in Equal.
type VersionRef struct {
	Version string      `json:"version,omitempty" yaml:"version,omitempty"`
	Missing bool        `json:"missing,omitempty" yaml:"missing,omitempty"`
	Range   string      `json:"range,omitempty" yaml:"range,omitempty"`
	Status  RangeStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// Equal compares two refs by exact version string.
func (v *VersionRef) Equal(o *VersionRef) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.Missing || o.Missing {
		return v.Missing == o.Missing
	}
	return v.Version == o.Version
}

// String renders the ref for humans.
func (v *VersionRef) String() string {
	switch {
	case v == nil:
		return "-"
	case v.Missing:
		return "[MISSING]"
	default:
		return v.Version
	}
}

// DiffEntry is a single dependency compared between two trees.
// A nil side means the name is absent from that tree.
type DiffEntry struct {
	Name           string         `json:"name" yaml:"name"`
	Left           *VersionRef    `json:"left,omitempty" yaml:"left,omitempty"`
	Right          *VersionRef    `json:"right,omitempty" yaml:"right,omitempty"`
	Classification Classification `json:"classification" yaml:"classification"`
}

// RangeChanged reports whether both sides declare the dependency with different ranges.
func (e *DiffEntry) RangeChanged() bool {
	return e.Left != nil && e.Right != nil && e.Left.Range != e.Right.Range
}
