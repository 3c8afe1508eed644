package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/internal/aggregate"
	"github.com/acheong08/pkgdrift/internal/drift"
	"github.com/acheong08/pkgdrift/internal/testfixture"
	"github.com/acheong08/pkgdrift/pkg/models"
)

func fixture(t *testing.T) *testfixture.Project {
	t.Helper()
	fx := testfixture.New(t)
	fx.WorkspaceRoot("monorepo", []string{"packages/*"})
	fx.Manifest("packages/a", "a", "0.1.0", "lodash", "^3.0.0")
	fx.Manifest("packages/b", "b", "0.2.0", "lodash", "^4.17.0", "zod", "^3.0.0")
	fx.Install("", "lodash", "4.17.21")
	fx.Install("packages/a", "lodash", "3.10.1")
	return fx
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := log.Default()
	t.Cleanup(func() { log.SetDefault(prev) })

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--log-level", "off"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTreeJSON(t *testing.T) {
	fx := fixture(t)

	out, err := run(t, "tree", "a", "--root", fx.Root, "-o", "json")
	require.NoError(t, err)

	var snap aggregate.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.Len(t, snap.Trees, 1)
	require.Len(t, snap.Trees[0].Children, 1)
	assert.Equal(t, "3.10.1", snap.Trees[0].Children[0].ResolvedVersion)
}

func TestTreeFromMemberDirectory(t *testing.T) {
	fx := fixture(t)

	out, err := run(t, "tree", "--root", fx.Path("packages/b"), "--color=false")
	require.NoError(t, err)
	assert.Contains(t, out, "monorepo@{no version}")
	assert.Contains(t, out, "zod@[MISSING] (^3.0.0)")
}

func TestTreeUnknownPackage(t *testing.T) {
	fx := fixture(t)

	out, err := run(t, "tree", "left-pad", "--root", fx.Root, "--color=false")
	require.NoError(t, err, "unknown names are reported, not failures")
	assert.Contains(t, out, "left-pad@[MISSING]")
}

func TestDiffCommand(t *testing.T) {
	fx := fixture(t)

	out, err := run(t, "diff", "a", "b", "--root", fx.Root, "-o", "json")
	require.NoError(t, err)

	var report drift.DiffReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []models.DiffEntry{
		{
			Name:           "lodash",
			Left:           &models.VersionRef{Version: "3.10.1", Range: "^3.0.0", Status: models.RangeSatisfied},
			Right:          &models.VersionRef{Version: "4.17.21", Range: "^4.17.0", Status: models.RangeSatisfied},
			Classification: models.Changed,
		},
		{Name: "zod", Right: &models.VersionRef{Missing: true, Range: "^3.0.0"}, Classification: models.Added},
	}, report.Entries)
}

func TestDiffBaseline(t *testing.T) {
	fx := fixture(t)

	saved, err := run(t, "tree", "a", "--root", fx.Root, "--depth", "1", "-o", "json")
	require.NoError(t, err)
	path := fx.WriteFile("tree.json", saved)

	out, err := run(t, "diff", "--baseline", path, "b", "--root", fx.Root, "-o", "json")
	require.NoError(t, err)

	var report drift.DiffReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{"a"}, report.Left)
	assert.Equal(t, []string{"b"}, report.Right)
	assert.Equal(t, 1, report.Stats.Changed)
	assert.Equal(t, 1, report.Stats.Added)
}

func TestCheckAndMembers(t *testing.T) {
	fx := fixture(t)

	out, err := run(t, "check", "--root", fx.Root, "-o", "json")
	require.NoError(t, err, "findings are not failures")
	var report drift.CheckReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Findings, 1)
	assert.Equal(t, aggregate.FindingMissing, report.Findings[0].Kind)
	assert.Equal(t, []string{"b", "zod"}, report.Findings[0].Path)

	out, err = run(t, "members", "--root", fx.Root, "--color=false")
	require.NoError(t, err)
	assert.Contains(t, out, "monorepo (root)")
	assert.Contains(t, out, "packages/b")
}

func TestExitCodes(t *testing.T) {
	fx := fixture(t)
	broken := testfixture.New(t)
	broken.WriteFile("package.json", "{")
	badBaseline := fx.WriteFile("bad.json", `{"trees": [{"name": "a", "children": [null]}]}`)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing root", []string{"tree", "--root", filepath.Join(fx.Root, "nope")}, errUtils.ExitIO},
		{"malformed root manifest", []string{"tree", "--root", broken.Root}, errUtils.ExitMalformed},
		{"unknown format", []string{"tree", "--root", fx.Root, "-o", "xml"}, errUtils.ExitUsage},
		{"one sided diff", []string{"diff", "a", "--root", fx.Root}, errUtils.ExitUsage},
		{"empty diff side", []string{"diff", "a", ",", "--root", fx.Root}, errUtils.ExitUsage},
		{"unknown flag", []string{"tree", "--frobnicate"}, errUtils.ExitUsage},
		{"null node in baseline", []string{"diff", "--baseline", badBaseline, "--root", fx.Root}, errUtils.ExitMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, errUtils.GetExitCode(err))
		})
	}
}

func TestSplitNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitNames("a, b,,c"))
	assert.Empty(t, splitNames(","))
}
