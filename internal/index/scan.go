package index

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	log "github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/internal/parser"
	"github.com/acheong08/pkgdrift/pkg/models"
)

// scanConcurrency bounds the number of node_modules directories read at once.
const scanConcurrency = 8

// Build scans node_modules under the project root and every member, then the nested
// node_modules of every package found, one breadth level at a time. Directories of a
// level are read in parallel and merged in path order, so the result does not depend
// on scheduling.
func Build(ctx context.Context, project *models.Project, reader parser.ManifestReader) (*Index, error) {
	ix := newIndex(project.Root)

	visited := make(map[string]bool)
	var level []string
	enqueue := func(dir string) {
		dir = filepath.Clean(dir)
		if !visited[dir] {
			visited[dir] = true
			level = append(level, dir)
		}
	}
	for _, m := range project.Packages() {
		enqueue(m.Dir)
	}

	for depth := 0; len(level) > 0; depth++ {
		current := level
		level = nil
		sort.Strings(current)

		results := make([][]*models.InstalledPackage, len(current))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(scanConcurrency)
		for i, dir := range current {
			g.Go(func() error {
				pkgs, err := scanDir(gctx, dir, reader)
				if err != nil {
					return err
				}
				results[i] = pkgs
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for i, dir := range current {
			for _, pkg := range results[i] {
				ix.add(dir, pkg)
				enqueue(pkg.Location)
				// Packages living in another package's node_modules (pnpm's virtual store)
				// resolve their siblings through that owner.
				if owner, ok := ownerDir(pkg.Location, pkg.Name); ok {
					enqueue(owner)
				}
			}
		}
		log.Debug("Scanned node_modules level", "depth", depth, "directories", len(current), "next", len(level))
	}

	log.Debug("Built package index", "root", ix.root, "entries", ix.Len(), "directories", len(ix.entries))
	return ix, nil
}

// scanDir lists dir/node_modules and loads every installed package in it.
func scanDir(ctx context.Context, dir string, reader parser.ManifestReader) ([]*models.InstalledPackage, error) {
	nm := filepath.Join(dir, nodeModules)
	names, err := listNodeModules(nm)
	if err != nil {
		return nil, err
	}

	var pkgs []*models.InstalledPackage
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pkg, err := loadInstalled(nm, name, reader)
		if err != nil {
			return nil, err
		}
		if pkg != nil {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs, nil
}

// listNodeModules returns the lookup names in nm, expanding @scope directories one level.
// Dot entries such as .bin and .package-lock.json are ignored.
func listNodeModules(nm string) ([]string, error) {
	entries, err := readDir(nm)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.HasPrefix(name, "@") {
			names = append(names, name)
			continue
		}
		scoped, err := readDir(filepath.Join(nm, name))
		if err != nil {
			return nil, err
		}
		for _, s := range scoped {
			if !strings.HasPrefix(s.Name(), ".") {
				names = append(names, name+"/"+s.Name())
			}
		}
	}
	return names, nil
}

// readDir treats a missing directory as empty.
func readDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", errUtils.ErrIO, dir, err)
	}
	return entries, nil
}

func loadInstalled(nm, name string, reader parser.ManifestReader) (*models.InstalledPackage, error) {
	path := filepath.Join(nm, filepath.FromSlash(name))
	location, err := filepath.EvalSymlinks(path)
	if err != nil {
		log.Debug("Skipping unresolvable node_modules entry", "path", path, "error", err)
		return nil, nil
	}
	if info, err := os.Stat(location); err != nil || !info.IsDir() {
		return nil, nil
	}

	m, err := parser.LoadManifest(reader, location)
	switch {
	case err == nil:
	case errors.Is(err, errUtils.ErrManifestNotFound):
		return nil, nil
	case errors.Is(err, errUtils.ErrMalformedManifest):
		log.Warn("Skipping installed package with malformed package.json", "path", path, "error", err)
		return nil, nil
	default:
		return nil, err
	}

	return &models.InstalledPackage{
		Name:     name,
		Version:  m.Version,
		Location: location,
		Manifest: m,
	}, nil
}

// ownerDir returns X for a location of the form X/node_modules/<name>.
func ownerDir(location, name string) (string, bool) {
	suffix := string(filepath.Separator) + filepath.Join(nodeModules, filepath.FromSlash(name))
	if !strings.HasSuffix(location, suffix) {
		return "", false
	}
	return strings.TrimSuffix(location, suffix), true
}
