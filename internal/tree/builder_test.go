package tree

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acheong08/pkgdrift/internal/index"
	"github.com/acheong08/pkgdrift/internal/parser"
	"github.com/acheong08/pkgdrift/internal/testfixture"
	"github.com/acheong08/pkgdrift/internal/workspace"
	"github.com/acheong08/pkgdrift/pkg/models"
)

func newBuilder(t *testing.T, fx *testfixture.Project, opts Options) *Builder {
	t.Helper()
	project, err := workspace.LoadProject(fx.Root, parser.FileReader{})
	require.NoError(t, err)
	ix, err := index.Build(context.Background(), project, parser.FileReader{})
	require.NoError(t, err)
	return NewBuilder(project, ix, opts)
}

func TestBuildCycleAndMissing(t *testing.T) {
	fx := testfixture.New(t)
	fx.Manifest("", "app", "1.0.0", "a", "^1.0.0", "ghost", "^2.0.0")
	fx.Install("", "a", "1.0.0", "b", "^1.0.0")
	fx.Install("", "b", "1.0.0", "a", "^1.0.0")

	roots := newBuilder(t, fx, DefaultOptions()).Build([]string{"app"})

	a := fx.Path("node_modules/a")
	b := fx.Path("node_modules/b")
	want := []*models.DependencyNode{{
		Name:            "app",
		ResolvedVersion: "1.0.0",
		Resolved:        true,
		Location:        fx.Root,
		Children: []*models.DependencyNode{
			{
				Name: "a", RequestedRange: "^1.0.0", ResolvedVersion: "1.0.0", Resolved: true,
				Location: a, Range: models.RangeSatisfied,
				Children: []*models.DependencyNode{{
					Name: "b", RequestedRange: "^1.0.0", ResolvedVersion: "1.0.0", Resolved: true,
					Location: b, Range: models.RangeSatisfied,
					Children: []*models.DependencyNode{{
						Name: "a", RequestedRange: "^1.0.0", ResolvedVersion: "1.0.0", Resolved: true,
						Location: a, Range: models.RangeSatisfied, IsCycle: true,
					}},
				}},
			},
			{Name: "ghost", RequestedRange: "^2.0.0"},
		},
	}}

	if diff := cmp.Diff(want, roots); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDepthLimit(t *testing.T) {
	fx := testfixture.New(t)
	fx.Manifest("", "app", "1.0.0", "c1", "*")
	fx.Install("", "c1", "1.0.0", "c2", "*")
	fx.Install("", "c2", "1.0.0", "c3", "*")
	fx.Install("", "c3", "1.0.0")

	tests := []struct {
		name      string
		depth     int
		wantDepth int
		truncated []string
	}{
		{"root only", 0, 0, []string{"app"}},
		{"direct dependencies", 1, 1, []string{"c1"}},
		{"two levels", 2, 2, []string{"c2"}},
		{"exact fit", 3, 3, nil},
		{"unlimited", -1, 3, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.MaxDepth = tt.depth
			roots := newBuilder(t, fx, opts).Build([]string{"app"})

			maxDepth := 0
			var truncated []string
			Walk(roots, func(n *models.DependencyNode, depth int) {
				maxDepth = max(maxDepth, depth)
				if n.Truncated {
					assert.Empty(t, n.Children)
					truncated = append(truncated, n.Name)
				}
			})
			assert.Equal(t, tt.wantDepth, maxDepth)
			assert.Equal(t, tt.truncated, truncated)
		})
	}
}

func TestBuildRootLookup(t *testing.T) {
	fx := testfixture.New(t)
	fx.WorkspaceRoot("monorepo", []string{"packages/*"})
	fx.Manifest("packages/a", "a", "0.1.0", "b", "workspace:*")
	fx.Manifest("packages/b", "b", "0.2.0")
	fx.Install("", "lodash", "4.17.21")

	roots := newBuilder(t, fx, DefaultOptions()).Build([]string{"a", "packages/b", "lodash", "nope"})
	require.Len(t, roots, 4)

	assert.Equal(t, "a", roots[0].Name)
	assert.Equal(t, fx.Path("packages/a"), roots[0].Location)

	// workspace: range without a node_modules link falls back to the member
	require.Len(t, roots[0].Children, 1)
	linked := roots[0].Children[0]
	assert.True(t, linked.Resolved)
	assert.Equal(t, "0.2.0", linked.ResolvedVersion)
	assert.Equal(t, fx.Path("packages/b"), linked.Location)
	assert.Equal(t, models.RangeSatisfied, linked.Range)

	assert.Equal(t, "b", roots[1].Name)
	assert.Equal(t, "0.2.0", roots[1].ResolvedVersion)

	assert.Equal(t, "lodash", roots[2].Name)
	assert.Equal(t, "4.17.21", roots[2].ResolvedVersion)
	assert.Equal(t, fx.Path("node_modules/lodash"), roots[2].Location)

	assert.Equal(t, &models.DependencyNode{Name: "nope"}, roots[3])
}

func TestBuildDevDependencies(t *testing.T) {
	fx := testfixture.New(t)
	fx.WriteFile("package.json", `{
		"name": "app",
		"dependencies": {"shared": "^1.0.0"},
		"devDependencies": {"shared": "^2.0.0", "vitest": "^1.0.0"}
	}`)
	fx.WriteFile("node_modules/vitest/package.json", `{
		"name": "vitest",
		"version": "1.2.0",
		"devDependencies": {"never-expanded": "*"}
	}`)
	fx.Install("", "shared", "2.1.0")

	tests := []struct {
		name  string
		opts  Options
		names []string
		dev   []bool
		rng   []models.RangeStatus
	}{
		{
			name:  "production only",
			opts:  Options{MaxDepth: -1},
			names: []string{"shared"},
			dev:   []bool{false},
			rng:   []models.RangeStatus{models.RangeUnsatisfied},
		},
		{
			name:  "dev wins",
			opts:  Options{MaxDepth: -1, IncludeDev: true, Policy: models.DevWins},
			names: []string{"shared", "vitest"},
			dev:   []bool{true, true},
			rng:   []models.RangeStatus{models.RangeSatisfied, models.RangeSatisfied},
		},
		{
			name:  "prod wins",
			opts:  Options{MaxDepth: -1, IncludeDev: true, Policy: models.ProdWins},
			names: []string{"shared", "vitest"},
			dev:   []bool{false, true},
			rng:   []models.RangeStatus{models.RangeUnsatisfied, models.RangeSatisfied},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newBuilder(t, fx, tt.opts).Build([]string{"app"})[0]

			var names []string
			var dev []bool
			var rng []models.RangeStatus
			for _, c := range root.Children {
				names = append(names, c.Name)
				dev = append(dev, c.Dev)
				rng = append(rng, c.Range)
				assert.Empty(t, c.Children)
			}
			assert.Equal(t, tt.names, names)
			assert.Equal(t, tt.dev, dev)
			assert.Equal(t, tt.rng, rng)
		})
	}
}

func TestWalkPath(t *testing.T) {
	roots := []*models.DependencyNode{
		{Name: "app", Children: []*models.DependencyNode{
			{Name: "a", Children: []*models.DependencyNode{{Name: "b"}}},
			{Name: "c"},
		}},
	}

	var visited []string
	WalkPath(roots, func(path []*models.DependencyNode) {
		s := ""
		for i, n := range path {
			if i > 0 {
				s += ">"
			}
			s += n.Name
		}
		visited = append(visited, s)
	})
	assert.Equal(t, []string{"app", "app>a", "app>a>b", "app>c"}, visited)
}
