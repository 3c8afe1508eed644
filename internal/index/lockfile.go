package index

import (
	"fmt"
	"path/filepath"

	log "github.com/charmbracelet/log"

	"github.com/acheong08/pkgdrift/internal/parser"
	"github.com/acheong08/pkgdrift/pkg/models"
)

// FromLockfile builds the index from package-lock.json content instead of scanning disk.
// Link entries point at workspace members and take the member's manifest.
func FromLockfile(project *models.Project, raw []byte) (*Index, error) {
	lf, err := parser.ParseLockfile(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse lockfile: %w", err)
	}

	ix := newIndex(project.Root)
	for _, entry := range lf.Entries {
		if !entry.InNodeModules() {
			continue
		}

		pkg, ok := lockedPackage(project, lf, entry)
		if !ok {
			log.Warn("Skipping lockfile link with unknown target", "path", entry.Path, "target", entry.Resolved)
			continue
		}
		ix.add(fromSlash(project.Root, entry.Parent()), pkg)
	}

	log.Debug("Built package index from lockfile", "root", ix.root, "version", lf.LockfileVersion, "entries", ix.Len())
	return ix, nil
}

func lockedPackage(project *models.Project, lf *parser.Lockfile, entry parser.LockEntry) (*models.InstalledPackage, bool) {
	if !entry.Link {
		location := fromSlash(project.Root, entry.Path)
		return &models.InstalledPackage{
			Name:     entry.Name,
			Version:  entry.Version,
			Location: location,
			Manifest: withDir(entry.Manifest, location),
		}, true
	}

	location := fromSlash(project.Root, entry.Resolved)
	if m, ok := project.PackageAt(location); ok {
		return &models.InstalledPackage{Name: entry.Name, Version: m.Version, Location: location, Manifest: m}, true
	}
	if target, ok := lf.Entry(entry.Resolved); ok && target.Manifest != nil {
		return &models.InstalledPackage{
			Name:     entry.Name,
			Version:  target.Version,
			Location: location,
			Manifest: withDir(target.Manifest, location),
		}, true
	}
	return nil, false
}

func withDir(m *models.Manifest, dir string) *models.Manifest {
	out := *m
	out.Dir = dir
	return &out
}

func fromSlash(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
