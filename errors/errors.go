package errors

import "github.com/cockroachdb/errors"

// Filesystem and manifest errors. Errors carrying ErrManifestNotFound are also marked
// with ErrIO by NotFound, so a missing required file is still an I/O failure.
var (
	ErrIO                = errors.New("filesystem read failed")
	ErrManifestNotFound  = errors.New("package.json not found")
	ErrMalformedManifest = errors.New("malformed package.json")
)

// Lockfile errors.
var (
	ErrMalformedLockfile   = errors.New("malformed package-lock.json")
	ErrUnsupportedLockfile = errors.New("unsupported lockfile version")
	ErrMalformedSnapshot   = errors.New("malformed tree snapshot")
)

// Workspace errors.
var (
	ErrInvalidWorkspaceGlob = errors.New("invalid workspace glob")
	ErrUnknownPackage       = errors.New("unknown package")
)

// Configuration and output errors.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrUnknownFormat = errors.New("unknown output format")
	ErrUsage         = errors.New("invalid usage")
)

// NotFound builds an error for a missing file at path that matches both
// ErrManifestNotFound and ErrIO.
func NotFound(path string) error {
	return errors.Mark(errors.Wrap(ErrManifestNotFound, path), ErrIO)
}
