// Package index answers "which installed package does code at location X get for name N"
// under node_modules hoisting rules.
package index

import (
	"path/filepath"
	"sort"

	"github.com/acheong08/pkgdrift/pkg/models"
)

const nodeModules = "node_modules"

// Index maps a directory owning a node_modules folder to the packages installed in it.
// It is filled once by Build or FromLockfile and read-only afterwards.
type Index struct {
	root    string
	entries map[string]map[string]*models.InstalledPackage
}

func newIndex(root string) *Index {
	return &Index{
		root:    filepath.Clean(root),
		entries: make(map[string]map[string]*models.InstalledPackage),
	}
}

// add records pkg as dir/node_modules/<pkg.Name>. The first record for a slot is kept.
func (ix *Index) add(dir string, pkg *models.InstalledPackage) {
	dir = filepath.Clean(dir)
	slot, ok := ix.entries[dir]
	if !ok {
		slot = make(map[string]*models.InstalledPackage)
		ix.entries[dir] = slot
	}
	if _, exists := slot[pkg.Name]; !exists {
		slot[pkg.Name] = pkg
	}
}

// Resolve walks from fromLocation upward and returns the package installed in the
// nearest enclosing node_modules. Directories named node_modules are skipped, and the
// walk ends after the project root.
func (ix *Index) Resolve(fromLocation, name string) (*models.InstalledPackage, bool) {
	dir := filepath.Clean(fromLocation)
	for {
		if filepath.Base(dir) != nodeModules {
			if pkg, ok := ix.entries[dir][name]; ok {
				return pkg, true
			}
		}
		if dir == ix.root {
			return nil, false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, false
		}
		dir = parent
	}
}

// Root returns the project root the index was built for.
func (ix *Index) Root() string {
	return ix.root
}

// Len returns the number of node_modules entries.
func (ix *Index) Len() int {
	n := 0
	for _, slot := range ix.entries {
		n += len(slot)
	}
	return n
}

// Directories returns every directory owning an indexed node_modules, sorted.
func (ix *Index) Directories() []string {
	dirs := make([]string, 0, len(ix.entries))
	for dir := range ix.entries {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// Packages returns every indexed entry sorted by owning directory, then name.
func (ix *Index) Packages() []*models.InstalledPackage {
	var pkgs []*models.InstalledPackage
	for _, dir := range ix.Directories() {
		slot := ix.entries[dir]
		names := make([]string, 0, len(slot))
		for name := range slot {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			pkgs = append(pkgs, slot[name])
		}
	}
	return pkgs
}
