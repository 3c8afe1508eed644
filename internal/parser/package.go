package parser

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/pkg/models"
)

// ManifestFile is the manifest file name inside a package directory.
const ManifestFile = "package.json"

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=$GOFILE -destination=mock_reader_test.go -package=$GOPACKAGE

// ManifestReader returns the raw text of a manifest file.
// A missing file must be reported with errUtils.NotFound.
type ManifestReader interface {
	ReadManifest(path string) ([]byte, error)
}

// FileReader reads manifests from the local filesystem.
type FileReader struct{}

// ReadManifest reads the file at path.
func (FileReader) ReadManifest(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, errUtils.NotFound(path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", errUtils.ErrIO, path, err)
	}
	return data, nil
}

// LoadManifest reads and parses dir/package.json.
func LoadManifest(reader ManifestReader, dir string) (*models.Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := reader.ReadManifest(path)
	if err != nil {
		return nil, err
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Dir = dir
	return m, nil
}

// ParseManifest parses package.json content. Dependency order follows the document;
// a name declared twice keeps its first position and its last range.
func ParseManifest(data []byte) (*models.Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", errUtils.ErrMalformedManifest)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", errUtils.ErrMalformedManifest)
	}

	name := doc.Get("name")
	if name.Type != gjson.String || name.Str == "" {
		return nil, fmt.Errorf("%w: missing 'name' field", errUtils.ErrMalformedManifest)
	}

	m := &models.Manifest{Name: name.Str}

	if v := doc.Get("version"); v.Exists() {
		if v.Type != gjson.String {
			return nil, fmt.Errorf("%w: 'version' is not a string", errUtils.ErrMalformedManifest)
		}
		m.Version = v.Str
	}

	var err error
	if m.Dependencies, err = parseDependencies(doc, "dependencies"); err != nil {
		return nil, err
	}
	if m.DevDependencies, err = parseDependencies(doc, "devDependencies"); err != nil {
		return nil, err
	}
	if m.Workspaces, err = parseWorkspaces(doc); err != nil {
		return nil, err
	}

	return m, nil
}

func parseDependencies(doc gjson.Result, field string) ([]models.Dependency, error) {
	section := doc.Get(field)
	if !section.Exists() || section.Type == gjson.Null {
		return nil, nil
	}
	if !section.IsObject() {
		return nil, fmt.Errorf("%w: '%s' is not an object", errUtils.ErrMalformedManifest, field)
	}

	var (
		deps []models.Dependency
		pos  = make(map[string]int)
		err  error
	)
	section.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			err = fmt.Errorf("%w: %s.%s: version is not a string", errUtils.ErrMalformedManifest, field, key.Str)
			return false
		}
		if i, ok := pos[key.Str]; ok {
			deps[i].Range = value.Str
			return true
		}
		pos[key.Str] = len(deps)
		deps = append(deps, models.Dependency{Name: key.Str, Range: value.Str})
		return true
	})
	if err != nil {
		return nil, err
	}
	return deps, nil
}

// parseWorkspaces accepts both the array form and yarn's {"packages": [...]} form.
func parseWorkspaces(doc gjson.Result) ([]string, error) {
	ws := doc.Get("workspaces")
	if !ws.Exists() || ws.Type == gjson.Null {
		return nil, nil
	}
	if ws.IsObject() {
		ws = ws.Get("packages")
		if !ws.Exists() {
			return nil, nil
		}
	}
	if !ws.IsArray() {
		return nil, fmt.Errorf("%w: 'workspaces' is not an array", errUtils.ErrMalformedManifest)
	}

	var globs []string
	for _, g := range ws.Array() {
		if g.Type != gjson.String {
			return nil, fmt.Errorf("%w: workspace entry is not a string", errUtils.ErrMalformedManifest)
		}
		if g.Str == "." || g.Str == "" {
			continue
		}
		globs = append(globs, g.Str)
	}
	return globs, nil
}
