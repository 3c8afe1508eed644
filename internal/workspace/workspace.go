// Package workspace expands the workspace globs of a root manifest into members.
package workspace

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	log "github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/internal/parser"
	"github.com/acheong08/pkgdrift/pkg/models"
)

const nodeModules = "node_modules"

// LoadProject reads the root manifest under projectRoot and resolves its members.
// The root is made absolute with symlinks evaluated so package locations compare cleanly.
func LoadProject(projectRoot string, reader parser.ManifestReader) (*models.Project, error) {
	root, err := canonical(projectRoot)
	if err != nil {
		return nil, err
	}

	manifest, err := parser.LoadManifest(reader, root)
	if err != nil {
		return nil, fmt.Errorf("failed to load root manifest: %w", err)
	}

	members, err := Resolve(root, manifest, reader)
	if err != nil {
		return nil, err
	}

	log.Debug("Loaded project", "root", root, "name", manifest.Name, "members", len(members))
	return &models.Project{Root: root, Manifest: manifest, Members: members}, nil
}

// Resolve expands the root manifest's workspace globs against projectRoot.
// Members are unique and sorted by relative path. Patterns starting with "!" exclude matches.
func Resolve(projectRoot string, root *models.Manifest, reader parser.ManifestReader) ([]models.WorkspaceMember, error) {
	var includes, excludes []string
	for _, g := range root.Workspaces {
		if strings.HasPrefix(g, "!") {
			excludes = append(excludes, cleanPattern(g[1:]))
			continue
		}
		includes = append(includes, cleanPattern(g))
	}

	for _, pattern := range append(includes, excludes...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", errUtils.ErrInvalidWorkspaceGlob, pattern)
		}
	}

	fsys := os.DirFS(projectRoot)
	seen := make(map[string]bool)
	var members []models.WorkspaceMember

	for _, pattern := range includes {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			if errors.Is(err, doublestar.ErrBadPattern) {
				return nil, fmt.Errorf("%w: %q", errUtils.ErrInvalidWorkspaceGlob, pattern)
			}
			return nil, fmt.Errorf("%w: expanding %q: %v", errUtils.ErrIO, pattern, err)
		}
		if len(matches) == 0 {
			log.Debug("Workspace glob matched nothing", "pattern", pattern)
		}

		for _, rel := range matches {
			if seen[rel] || !isCandidate(rel) || excluded(rel, excludes) {
				continue
			}
			seen[rel] = true

			dir := filepath.Join(projectRoot, filepath.FromSlash(rel))
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				continue
			}

			m, err := parser.LoadManifest(reader, dir)
			switch {
			case err == nil:
				members = append(members, models.WorkspaceMember{Manifest: m, RelPath: rel})
			case errors.Is(err, errUtils.ErrManifestNotFound):
				log.Warn("Skipping workspace directory without package.json", "path", rel)
			case errors.Is(err, errUtils.ErrMalformedManifest):
				log.Warn("Skipping workspace member with malformed package.json", "path", rel, "error", err)
			default:
				return nil, fmt.Errorf("failed to load workspace member %s: %w", rel, err)
			}
		}
	}

	sort.Slice(members, func(i, j int) bool {
		return members[i].RelPath < members[j].RelPath
	})
	return members, nil
}

// FindRoot walks upward from start to the workspace root that owns it. Without one,
// the nearest directory holding a package.json is returned.
func FindRoot(start string, reader parser.ManifestReader) (string, error) {
	start, err := canonical(start)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(start); err != nil {
		return "", errUtils.NotFound(filepath.Join(start, parser.ManifestFile))
	}

	nearest := ""
	var startErr error
	for dir := start; ; dir = filepath.Dir(dir) {
		m, err := parser.LoadManifest(reader, dir)
		switch {
		case err == nil:
			if nearest == "" {
				nearest = dir
			}
			if m.IsWorkspaceRoot() && owns(dir, start, m.Workspaces) {
				return dir, nil
			}
		case errors.Is(err, errUtils.ErrMalformedManifest):
			if dir == start {
				startErr = err
			}
		case errors.Is(err, errUtils.ErrManifestNotFound):
		default:
			return "", err
		}

		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}

	switch {
	case startErr != nil:
		return "", startErr
	case nearest == "":
		return "", errUtils.NotFound(filepath.Join(start, parser.ManifestFile))
	}
	return nearest, nil
}

// owns reports whether dir is a workspace member of root, or lies inside one.
func owns(root, dir string, globs []string) bool {
	if root == dir {
		return true
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	for candidate := filepath.ToSlash(rel); candidate != "." && candidate != "/"; candidate = path.Dir(candidate) {
		for _, g := range globs {
			if strings.HasPrefix(g, "!") {
				continue
			}
			if ok, _ := doublestar.Match(cleanPattern(g), candidate); ok {
				return true
			}
		}
	}
	return false
}

func canonical(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUtils.ErrIO, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs, nil
}

func cleanPattern(g string) string {
	return path.Clean(strings.TrimPrefix(strings.TrimSpace(g), "./"))
}

// isCandidate rejects the project root itself and anything inside node_modules.
func isCandidate(rel string) bool {
	if rel == "." || rel == "" {
		return false
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == nodeModules {
			return false
		}
	}
	return true
}

func excluded(rel string, excludes []string) bool {
	for _, pattern := range excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
