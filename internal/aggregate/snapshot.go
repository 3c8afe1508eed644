package aggregate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/pkg/models"
)

// LoadSnapshot loads trees saved with `pkgdrift tree --format json`
func LoadSnapshot(filename string) ([]*models.DependencyNode, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errUtils.NotFound(filename)
		}
		return nil, fmt.Errorf("%w: failed to open snapshot: %v", errUtils.ErrIO, err)
	}
	defer file.Close()

	return ReadSnapshot(file)
}

// ReadSnapshot decodes a snapshot object, or a bare JSON array of trees
func ReadSnapshot(reader io.Reader) ([]*models.DependencyNode, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read snapshot: %v", errUtils.ErrIO, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var trees []*models.DependencyNode
		if err := json.Unmarshal(data, &trees); err != nil {
			return nil, fmt.Errorf("%w: failed to parse snapshot: %v", errUtils.ErrMalformedSnapshot, err)
		}
		if err := validateSnapshot(trees); err != nil {
			return nil, err
		}
		return trees, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: failed to parse snapshot: %v", errUtils.ErrMalformedSnapshot, err)
	}
	if err := validateSnapshot(snap.Trees); err != nil {
		return nil, err
	}
	return snap.Trees, nil
}

// validateSnapshot rejects null nodes anywhere in the trees.
func validateSnapshot(nodes []*models.DependencyNode) error {
	for _, n := range nodes {
		if n == nil {
			return fmt.Errorf("%w: null tree node", errUtils.ErrMalformedSnapshot)
		}
		if err := validateSnapshot(n.Children); err != nil {
			return err
		}
	}
	return nil
}
