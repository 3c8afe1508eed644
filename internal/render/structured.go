package render

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/internal/aggregate"
	"github.com/acheong08/pkgdrift/internal/drift"
	"github.com/acheong08/pkgdrift/pkg/models"
)

// Trees are wrapped in a snapshot so the JSON output can be fed back as a diff baseline.
func snapshot(nodes []*models.DependencyNode) aggregate.Snapshot {
	if nodes == nil {
		nodes = []*models.DependencyNode{}
	}
	return aggregate.Snapshot{Trees: nodes}
}

type jsonRenderer struct{}

func (jsonRenderer) write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%w: writing JSON: %v", errUtils.ErrIO, err)
	}
	return nil
}

func (r jsonRenderer) RenderTree(w io.Writer, nodes []*models.DependencyNode) error {
	return r.write(w, snapshot(nodes))
}

func (r jsonRenderer) RenderDiff(w io.Writer, report *drift.DiffReport) error {
	return r.write(w, report)
}

func (r jsonRenderer) RenderCheck(w io.Writer, report *drift.CheckReport) error {
	return r.write(w, report)
}

func (r jsonRenderer) RenderMembers(w io.Writer, project *models.Project) error {
	return r.write(w, members(project))
}

type yamlRenderer struct{}

func (yamlRenderer) write(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%w: writing YAML: %v", errUtils.ErrIO, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: writing YAML: %v", errUtils.ErrIO, err)
	}
	return nil
}

func (r yamlRenderer) RenderTree(w io.Writer, nodes []*models.DependencyNode) error {
	return r.write(w, snapshot(nodes))
}

func (r yamlRenderer) RenderDiff(w io.Writer, report *drift.DiffReport) error {
	return r.write(w, report)
}

func (r yamlRenderer) RenderCheck(w io.Writer, report *drift.CheckReport) error {
	return r.write(w, report)
}

func (r yamlRenderer) RenderMembers(w io.Writer, project *models.Project) error {
	return r.write(w, members(project))
}
