// Package render writes trees, diffs and check reports for humans or machines.
package render

import (
	"fmt"
	"io"
	"strings"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/internal/drift"
	"github.com/acheong08/pkgdrift/pkg/models"
)

// Format selects a renderer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatYAML}

// Options for text output.
type Options struct {
	Color bool
}

// Renderer writes command results to w.
type Renderer interface {
	RenderTree(w io.Writer, nodes []*models.DependencyNode) error
	RenderDiff(w io.Writer, report *drift.DiffReport) error
	RenderCheck(w io.Writer, report *drift.CheckReport) error
	RenderMembers(w io.Writer, project *models.Project) error
}

// New returns the renderer for format.
func New(format Format, opts Options) (Renderer, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatText, "":
		return newTextRenderer(opts), nil
	case FormatJSON:
		return jsonRenderer{}, nil
	case FormatYAML:
		return yamlRenderer{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (expected one of %v)", errUtils.ErrUnknownFormat, format, Formats)
	}
}

// Member is the machine readable form of a project package.
type Member struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Path    string `json:"path" yaml:"path"`
	Root    bool   `json:"root,omitempty" yaml:"root,omitempty"`
}

func members(project *models.Project) []Member {
	out := make([]Member, 0, len(project.Members)+1)
	out = append(out, Member{Name: project.Manifest.Name, Version: project.Manifest.Version, Path: ".", Root: true})
	for _, m := range project.Members {
		out = append(out, Member{Name: m.Manifest.Name, Version: m.Manifest.Version, Path: m.RelPath})
	}
	return out
}
