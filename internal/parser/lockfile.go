package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/pkg/models"
)

// LockfileName is the npm lockfile read by the lockfile index source.
const LockfileName = "package-lock.json"

// Lockfile is the part of a package-lock.json (v2 or v3) needed to rebuild the installed layout.
type Lockfile struct {
	LockfileVersion int
	Name            string
	Version         string
	Entries         []LockEntry // sorted by Path
}

// LockEntry represents a single entry of the lockfile "packages" map.
type LockEntry struct {
	Path     string // key in the "packages" map, slash separated, relative to the project root
	Name     string // lookup name derived from the key, empty for non node_modules keys
	Version  string
	Resolved string // for links: target directory relative to the project root
	Link     bool
	Dev      bool
	Manifest *models.Manifest
}

// InNodeModules reports whether the entry is installed under some node_modules directory.
func (e LockEntry) InNodeModules() bool {
	return e.Name != ""
}

// Parent returns the slash separated directory whose node_modules holds the entry.
func (e LockEntry) Parent() string {
	idx := strings.LastIndex(e.Path, "node_modules/")
	if idx <= 0 {
		return ""
	}
	return strings.TrimSuffix(e.Path[:idx], "/")
}

// ParseLockfile parses package-lock.json content. Version 1 lockfiles have no
// "packages" map and are rejected with ErrUnsupportedLockfile.
func ParseLockfile(data []byte) (*Lockfile, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", errUtils.ErrMalformedLockfile)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", errUtils.ErrMalformedLockfile)
	}

	lf := &Lockfile{
		LockfileVersion: int(doc.Get("lockfileVersion").Int()),
		Name:            doc.Get("name").String(),
		Version:         doc.Get("version").String(),
	}
	if lf.LockfileVersion != 2 && lf.LockfileVersion != 3 {
		return nil, fmt.Errorf("%w: %d (expected 2 or 3)", errUtils.ErrUnsupportedLockfile, lf.LockfileVersion)
	}

	packages := doc.Get("packages")
	if !packages.IsObject() {
		return nil, fmt.Errorf("%w: missing 'packages' map", errUtils.ErrMalformedLockfile)
	}

	var err error
	packages.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			err = fmt.Errorf("%w: entry %q is not an object", errUtils.ErrMalformedLockfile, key.Str)
			return false
		}

		entry := LockEntry{
			Path:     key.Str,
			Name:     extractPackageName(key.Str),
			Version:  value.Get("version").String(),
			Resolved: value.Get("resolved").String(),
			Link:     value.Get("link").Bool(),
			Dev:      value.Get("dev").Bool(),
		}

		if !entry.Link {
			name := value.Get("name").String()
			if name == "" {
				name = entry.Name
			}
			if name == "" && key.Str == "" {
				name = lf.Name
			}
			m := &models.Manifest{Name: name, Version: entry.Version}
			var depErr error
			if m.Dependencies, depErr = parseDependencies(value, "dependencies"); depErr == nil {
				m.DevDependencies, depErr = parseDependencies(value, "devDependencies")
			}
			if depErr != nil {
				err = fmt.Errorf("%w: entry %q: %v", errUtils.ErrMalformedLockfile, key.Str, depErr)
				return false
			}
			entry.Manifest = m
		}

		lf.Entries = append(lf.Entries, entry)
		return true
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(lf.Entries, func(i, j int) bool {
		return lf.Entries[i].Path < lf.Entries[j].Path
	})
	return lf, nil
}

// Entry returns the entry stored under path.
func (lf *Lockfile) Entry(path string) (LockEntry, bool) {
	i := sort.Search(len(lf.Entries), func(i int) bool {
		return lf.Entries[i].Path >= path
	})
	if i < len(lf.Entries) && lf.Entries[i].Path == path {
		return lf.Entries[i], true
	}
	return LockEntry{}, false
}

// extractPackageName extracts the package name from a node_modules path
func extractPackageName(path string) string {
	// Handle scoped packages: node_modules/@scope/name
	parts := strings.Split(path, "node_modules/")
	if len(parts) < 2 {
		return ""
	}

	// Get the last part after node_modules/
	name := parts[len(parts)-1]

	// Remove any trailing node_modules references
	if idx := strings.Index(name, "/node_modules/"); idx != -1 {
		name = name[:idx]
	}

	return name
}
