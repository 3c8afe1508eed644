package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/pkg/models"
)

func TestParseManifest(t *testing.T) {
	raw := `{
		"name": "demo",
		"version": "1.0.0",
		"private": true,
		"dependencies": {"zod": "^3.0.0", "lodash": "^4.0.0", "zod": "^3.22.0"},
		"devDependencies": {"vitest": "^1.0.0"},
		"workspaces": ["packages/*", "."]
	}`

	m, err := ParseManifest([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "demo", m.Name)
	assert.Equal(t, "1.0.0", m.Version)
	assert.Equal(t, []models.Dependency{
		{Name: "zod", Range: "^3.22.0"},
		{Name: "lodash", Range: "^4.0.0"},
	}, m.Dependencies)
	assert.Equal(t, []models.Dependency{{Name: "vitest", Range: "^1.0.0"}}, m.DevDependencies)
	assert.Equal(t, []string{"packages/*"}, m.Workspaces)
}

func TestParseManifestWorkspacesObject(t *testing.T) {
	m, err := ParseManifest([]byte(`{"name": "root", "workspaces": {"packages": ["apps/*", "libs/**"], "nohoist": ["x"]}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"apps/*", "libs/**"}, m.Workspaces)
	assert.Empty(t, m.Version)
	assert.Nil(t, m.Dependencies)
}

func TestParseManifestMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ``},
		{"not json", `{"name": `},
		{"array", `["demo"]`},
		{"missing name", `{"version": "1.0.0"}`},
		{"empty name", `{"name": ""}`},
		{"numeric name", `{"name": 42}`},
		{"numeric version", `{"name": "demo", "version": 1}`},
		{"dependencies array", `{"name": "demo", "dependencies": ["lodash"]}`},
		{"range not string", `{"name": "demo", "devDependencies": {"lodash": 4}}`},
		{"workspaces string", `{"name": "demo", "workspaces": "packages/*"}`},
		{"workspace entry number", `{"name": "demo", "workspaces": [1]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errUtils.ErrMalformedManifest), "got %v", err)
		})
	}
}

func TestLoadManifestWithMockReader(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := NewMockManifestReader(ctrl)

	dir := filepath.FromSlash("/repo/packages/a")
	reader.EXPECT().
		ReadManifest(filepath.Join(dir, ManifestFile)).
		Return([]byte(`{"name": "a", "version": "0.1.0"}`), nil)

	m, err := LoadManifest(reader, dir)
	require.NoError(t, err)
	assert.Equal(t, "a@0.1.0", m.ID())
	assert.Equal(t, dir, m.Dir)
}

func TestLoadManifestPropagatesErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := NewMockManifestReader(ctrl)

	reader.EXPECT().ReadManifest(gomock.Any()).Return(nil, errUtils.NotFound("/x/package.json"))
	_, err := LoadManifest(reader, "/x")
	assert.True(t, errors.Is(err, errUtils.ErrManifestNotFound))

	reader.EXPECT().ReadManifest(gomock.Any()).Return([]byte(`{}`), nil)
	_, err = LoadManifest(reader, "/y")
	assert.True(t, errors.Is(err, errUtils.ErrMalformedManifest))
	assert.Contains(t, err.Error(), filepath.Join("/y", ManifestFile))
}

func TestFileReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestFile)
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "x"}`), 0o644))

	data, err := FileReader{}.ReadManifest(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "x"}`, string(data))

	_, err = FileReader{}.ReadManifest(filepath.Join(dir, "missing", ManifestFile))
	assert.True(t, errors.Is(err, errUtils.ErrManifestNotFound))
	assert.True(t, errors.Is(err, errUtils.ErrIO))

	// A file where a directory is expected also counts as not found.
	_, err = FileReader{}.ReadManifest(filepath.Join(path, ManifestFile))
	assert.True(t, errors.Is(err, errUtils.ErrManifestNotFound))
}
