package parser

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/pkg/models"
)

const workspaceLock = `{
  "name": "monorepo",
  "version": "1.0.0",
  "lockfileVersion": 3,
  "requires": true,
  "packages": {
    "": {
      "name": "monorepo",
      "version": "1.0.0",
      "workspaces": ["packages/*"],
      "dependencies": {"lodash": "^4.17.0"}
    },
    "node_modules/a": {"resolved": "packages/a", "link": true},
    "node_modules/lodash": {"version": "4.17.21", "resolved": "https://registry.npmjs.org/lodash/-/lodash-4.17.21.tgz"},
    "node_modules/@types/node": {"version": "20.11.0", "dev": true, "dependencies": {"undici-types": "~5.26.4"}},
    "packages/a": {"name": "a", "version": "0.1.0", "dependencies": {"lodash": "^3.0.0"}},
    "packages/a/node_modules/lodash": {"version": "3.10.1"}
  }
}`

func TestParseLockfile(t *testing.T) {
	lf, err := ParseLockfile([]byte(workspaceLock))
	require.NoError(t, err)

	assert.Equal(t, 3, lf.LockfileVersion)
	assert.Equal(t, "monorepo", lf.Name)
	require.Len(t, lf.Entries, 6)

	// Entries are sorted by key
	assert.Equal(t, "", lf.Entries[0].Path)
	assert.Equal(t, "packages/a/node_modules/lodash", lf.Entries[5].Path)

	root, ok := lf.Entry("")
	require.True(t, ok)
	assert.False(t, root.InNodeModules())
	assert.Equal(t, "monorepo", root.Manifest.Name)
	assert.Equal(t, []models.Dependency{{Name: "lodash", Range: "^4.17.0"}}, root.Manifest.Dependencies)

	link, ok := lf.Entry("node_modules/a")
	require.True(t, ok)
	assert.True(t, link.Link)
	assert.Equal(t, "packages/a", link.Resolved)
	assert.Nil(t, link.Manifest)

	types, ok := lf.Entry("node_modules/@types/node")
	require.True(t, ok)
	assert.Equal(t, "@types/node", types.Name)
	assert.True(t, types.Dev)
	assert.Equal(t, "", types.Parent())

	nested, ok := lf.Entry("packages/a/node_modules/lodash")
	require.True(t, ok)
	assert.Equal(t, "lodash", nested.Name)
	assert.Equal(t, "3.10.1", nested.Version)
	assert.Equal(t, "packages/a", nested.Parent())

	_, ok = lf.Entry("node_modules/missing")
	assert.False(t, ok)
}

func TestParseLockfileErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `{`, errUtils.ErrMalformedLockfile},
		{"array", `[]`, errUtils.ErrMalformedLockfile},
		{"version 1", `{"lockfileVersion": 1, "dependencies": {}}`, errUtils.ErrUnsupportedLockfile},
		{"no packages", `{"lockfileVersion": 2}`, errUtils.ErrMalformedLockfile},
		{"entry not object", `{"lockfileVersion": 3, "packages": {"node_modules/a": "1.0.0"}}`, errUtils.ErrMalformedLockfile},
		{"bad dependencies", `{"lockfileVersion": 3, "packages": {"node_modules/a": {"dependencies": {"b": 1}}}}`, errUtils.ErrMalformedLockfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLockfile([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestExtractPackageName(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		// Simple packages
		{"node_modules/lodash", "lodash"},
		{"node_modules/express", "express"},

		// Scoped packages
		{"node_modules/@sveltejs/kit", "@sveltejs/kit"},
		{"node_modules/@types/node", "@types/node"},

		// Nested dependencies (returns the package at that path, not parent)
		{"node_modules/foo/node_modules/bar", "bar"},
		{"node_modules/lodash/node_modules/@types/node", "@types/node"},
		{"node_modules/@scope/pkg/node_modules/@other/dep", "@other/dep"},

		// Workspace member directories and the root are not installed packages
		{"packages/a", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result := extractPackageName(tt.path)
			assert.Equal(t, tt.expected, result)
		})
	}
}
