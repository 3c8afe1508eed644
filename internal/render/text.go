package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/internal/aggregate"
	"github.com/acheong08/pkgdrift/internal/drift"
	"github.com/acheong08/pkgdrift/pkg/models"
)

// Markers shown next to node versions.
const (
	markerMissing   = "[MISSING]"
	markerCycle     = "[CYCLE]"
	markerTruncated = "[TRUNCATED]"
	markerDev       = "[DEV]"
	markerNoVersion = "{no version}"
)

type styles struct {
	title     lipgloss.Style
	branch    lipgloss.Style
	faint     lipgloss.Style
	version   lipgloss.Style
	bad       lipgloss.Style
	warn      lipgloss.Style
	good      lipgloss.Style
	header    lipgloss.Style
	cell      lipgloss.Style
	tableLine lipgloss.Style
}

func newStyles(color bool) styles {
	s := styles{
		title:     lipgloss.NewStyle().Bold(true),
		branch:    lipgloss.NewStyle(),
		faint:     lipgloss.NewStyle(),
		version:   lipgloss.NewStyle(),
		bad:       lipgloss.NewStyle(),
		warn:      lipgloss.NewStyle(),
		good:      lipgloss.NewStyle(),
		header:    lipgloss.NewStyle().Bold(true).Padding(0, 1),
		cell:      lipgloss.NewStyle().Padding(0, 1),
		tableLine: lipgloss.NewStyle(),
	}
	if !color {
		s.title = lipgloss.NewStyle()
		s.header = lipgloss.NewStyle().Padding(0, 1)
		return s
	}
	s.branch = s.branch.Foreground(lipgloss.Color("8"))
	s.faint = s.faint.Foreground(lipgloss.Color("8"))
	s.version = s.version.Foreground(lipgloss.Color("4"))
	s.bad = s.bad.Foreground(lipgloss.Color("1"))
	s.warn = s.warn.Foreground(lipgloss.Color("3"))
	s.good = s.good.Foreground(lipgloss.Color("2"))
	s.tableLine = s.tableLine.Foreground(lipgloss.Color("8"))
	return s
}

type textRenderer struct {
	styles styles
}

func newTextRenderer(opts Options) *textRenderer {
	return &textRenderer{styles: newStyles(opts.Color)}
}

func (r *textRenderer) write(w io.Writer, s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("%w: writing output: %v", errUtils.ErrIO, err)
	}
	return nil
}

// RenderTree draws each root as its own tree.
func (r *textRenderer) RenderTree(w io.Writer, nodes []*models.DependencyNode) error {
	if len(nodes) == 0 {
		return r.write(w, r.styles.warn.Render("No packages to show."))
	}

	var out strings.Builder
	for i, n := range nodes {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(r.buildTree(n).String())
		out.WriteString("\n")
	}
	return r.write(w, out.String())
}

func (r *textRenderer) buildTree(n *models.DependencyNode) *tree.Tree {
	t := tree.New().
		Root(r.label(n)).
		EnumeratorStyle(r.styles.branch)
	for _, c := range n.Children {
		if len(c.Children) == 0 {
			t.Child(r.label(c))
			continue
		}
		t.Child(r.buildTree(c))
	}
	return t
}

// label renders "name@version" with range and state markers.
func (r *textRenderer) label(n *models.DependencyNode) string {
	var b strings.Builder
	b.WriteString(n.Name)
	b.WriteString(r.styles.faint.Render("@"))

	switch {
	case !n.Resolved:
		b.WriteString(r.styles.bad.Render(markerMissing))
	case n.ResolvedVersion == "":
		b.WriteString(r.styles.warn.Render(markerNoVersion))
	case n.Range == models.RangeUnsatisfied:
		b.WriteString(r.styles.bad.Render(n.ResolvedVersion))
	default:
		b.WriteString(r.styles.version.Render(n.ResolvedVersion))
	}

	if n.RequestedRange != "" {
		b.WriteString(" ")
		b.WriteString(r.styles.faint.Render("(" + n.RequestedRange + ")"))
	}
	if n.Dev {
		b.WriteString(" " + r.styles.faint.Render(markerDev))
	}
	if n.IsCycle {
		b.WriteString(" " + r.styles.warn.Render(markerCycle))
	}
	if n.Truncated {
		b.WriteString(" " + r.styles.warn.Render(markerTruncated))
	}
	return b.String()
}

func (r *textRenderer) table(headers []string, rows [][]string) string {
	t := table.New().
		Headers(headers...).
		Rows(rows...).
		Border(lipgloss.NormalBorder()).
		BorderHeader(true).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderRow(false).
		BorderColumn(false).
		BorderStyle(r.styles.tableLine).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.styles.header
			}
			return r.styles.cell
		})
	return t.String()
}

// RenderDiff prints every entry in name order with the declared ranges of both sides.
func (r *textRenderer) RenderDiff(w io.Writer, report *drift.DiffReport) error {
	var out strings.Builder
	out.WriteString(r.styles.title.Render(fmt.Sprintf("Comparing %s with %s",
		strings.Join(report.Left, ", "), strings.Join(report.Right, ", "))))
	out.WriteString("\n\n")

	if len(report.Entries) == 0 {
		out.WriteString(r.styles.faint.Render("No dependencies to compare."))
		return r.write(w, out.String())
	}

	rows := make([][]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		rows = append(rows, []string{e.Name, r.ranges(e), r.ref(e.Left), r.ref(e.Right), r.classification(e.Classification)})
	}
	out.WriteString(r.table([]string{"PACKAGE", "RANGE", "LEFT", "RIGHT", "STATUS"}, rows))
	out.WriteString("\n\n")
	out.WriteString(r.diffSummary(report.Stats))
	return r.write(w, out.String())
}

// ranges shows "(left -> right)" when the declarations differ, otherwise the shared range.
func (r *textRenderer) ranges(e models.DiffEntry) string {
	switch {
	case e.RangeChanged():
		return r.styles.warn.Render(fmt.Sprintf("(%s -> %s)", e.Left.Range, e.Right.Range))
	case e.Left != nil:
		return r.styles.faint.Render(e.Left.Range)
	case e.Right != nil:
		return r.styles.faint.Render(e.Right.Range)
	default:
		return ""
	}
}

// ref colors a version by whether it satisfies the range declared on its side.
func (r *textRenderer) ref(v *models.VersionRef) string {
	switch {
	case v == nil:
		return r.styles.faint.Render(v.String())
	case v.Missing, v.Status == models.RangeUnsatisfied:
		return r.styles.bad.Render(v.String())
	case v.Status == models.RangeSatisfied:
		return r.styles.good.Render(v.String())
	default:
		return v.String()
	}
}

func (r *textRenderer) classification(c models.Classification) string {
	switch c {
	case models.Added:
		return r.styles.good.Render(string(c))
	case models.Removed:
		return r.styles.bad.Render(string(c))
	case models.Changed:
		return r.styles.warn.Render(string(c))
	default:
		return r.styles.faint.Render(string(c))
	}
}

func (r *textRenderer) diffSummary(s *aggregate.DiffStats) string {
	if s == nil {
		return ""
	}
	summary := fmt.Sprintf("%d packages: %d added, %d removed, %d changed, %d unchanged",
		s.Total, s.Added, s.Removed, s.Changed, s.Unchanged)
	if s.RangeChanged > 0 {
		summary += fmt.Sprintf(" (%d declared with different ranges)", s.RangeChanged)
	}
	return summary
}

// RenderCheck prints the findings table and the summary counts.
func (r *textRenderer) RenderCheck(w io.Writer, report *drift.CheckReport) error {
	var out strings.Builder
	out.WriteString(r.styles.title.Render("Checking " + report.Root))
	out.WriteString("\n\n")

	if report.OK() {
		out.WriteString(r.styles.good.Render("✓ All dependencies are installed and satisfy their ranges"))
	} else {
		rows := make([][]string, 0, len(report.Findings))
		for _, f := range report.Findings {
			found := f.ResolvedVersion
			if f.Kind != aggregate.FindingUnsatisfied {
				found = markerMissing
			}
			rows = append(rows, []string{
				string(f.Kind),
				f.Name,
				f.RequestedRange,
				found,
				strings.Join(f.Path, " > "),
			})
		}
		out.WriteString(r.table([]string{"KIND", "PACKAGE", "WANTED", "FOUND", "PATH"}, rows))
	}

	if s := report.Stats; s != nil {
		out.WriteString("\n\n")
		out.WriteString(fmt.Sprintf("%d roots, %d dependencies: %d resolved, %d missing, %d unsatisfied, %d cycles",
			s.Roots, s.Packages, s.Resolved, s.Missing, s.Unsatisfied, s.Cycles))
		if s.Truncated > 0 {
			out.WriteString(fmt.Sprintf(", %d truncated", s.Truncated))
		}
	}
	return r.write(w, out.String())
}

// RenderMembers lists the root and every workspace member.
func (r *textRenderer) RenderMembers(w io.Writer, project *models.Project) error {
	rows := make([][]string, 0, len(project.Members)+1)
	for _, m := range members(project) {
		name := m.Name
		if m.Root {
			name += " (root)"
		}
		rows = append(rows, []string{name, m.Version, m.Path})
	}
	return r.write(w, r.table([]string{"NAME", "VERSION", "PATH"}, rows))
}
