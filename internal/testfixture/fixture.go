// Package testfixture lays out small npm projects on disk for tests.
package testfixture

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Project is a project directory under t.TempDir().
type Project struct {
	t    testing.TB
	Root string
}

// New creates an empty project. Root has symlinks evaluated.
func New(t testing.TB) *Project {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return &Project{t: t, Root: root}
}

// Path returns the absolute path of a slash separated relative path.
func (p *Project) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// WriteFile writes content to rel, creating parent directories.
func (p *Project) WriteFile(rel, content string) string {
	p.t.Helper()
	path := p.Path(rel)
	require.NoError(p.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(p.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// Manifest writes rel/package.json. deps are name/range pairs kept in order.
func (p *Project) Manifest(rel, name, version string, deps ...string) string {
	p.t.Helper()
	p.WriteFile(joinRel(rel, "package.json"), manifestJSON(name, version, "dependencies", deps))
	return p.Path(rel)
}

// DevManifest is Manifest with the pairs written as devDependencies.
func (p *Project) DevManifest(rel, name, version string, devDeps ...string) string {
	p.t.Helper()
	p.WriteFile(joinRel(rel, "package.json"), manifestJSON(name, version, "devDependencies", devDeps))
	return p.Path(rel)
}

// WorkspaceRoot writes the root package.json declaring workspaces and dependencies.
func (p *Project) WorkspaceRoot(name string, workspaces []string, deps ...string) string {
	p.t.Helper()
	body := manifestJSON(name, "", "dependencies", deps)
	globs, err := json.Marshal(workspaces)
	require.NoError(p.t, err)
	body = strings.Replace(body, "{\n", "{\n  \"private\": true,\n  \"workspaces\": "+string(globs)+",\n", 1)
	p.WriteFile("package.json", body)
	return p.Root
}

// Install writes parentRel/node_modules/name/package.json and returns the package directory.
func (p *Project) Install(parentRel, name, version string, deps ...string) string {
	p.t.Helper()
	return p.Manifest(joinRel(parentRel, "node_modules/"+name), name, version, deps...)
}

// Link symlinks parentRel/node_modules/name to targetRel.
func (p *Project) Link(parentRel, name, targetRel string) {
	p.t.Helper()
	link := p.Path(joinRel(parentRel, "node_modules/"+name))
	require.NoError(p.t, os.MkdirAll(filepath.Dir(link), 0o755))
	require.NoError(p.t, os.Symlink(p.Path(targetRel), link))
}

func joinRel(parts ...string) string {
	var out []string
	for _, part := range parts {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return strings.Join(out, "/")
}

func manifestJSON(name, version, section string, pairs []string) string {
	var b strings.Builder
	b.WriteString("{\n  \"name\": ")
	b.WriteString(quote(name))
	if version != "" {
		b.WriteString(",\n  \"version\": ")
		b.WriteString(quote(version))
	}
	if len(pairs) > 0 {
		b.WriteString(",\n  \"" + section + "\": {")
		for i := 0; i+1 < len(pairs); i += 2 {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString("\n    " + quote(pairs[i]) + ": " + quote(pairs[i+1]))
		}
		b.WriteString("\n  }")
	}
	b.WriteString("\n}\n")
	return b.String()
}

func quote(s string) string {
	out, _ := json.Marshal(s)
	return string(out)
}
