package errors

import (
	"github.com/cockroachdb/errors"
)

// Exit codes returned by the CLI. Drift and missing dependencies are results, not failures,
// so they always map to ExitOK.
const (
	ExitOK        = 0
	ExitIO        = 1
	ExitMalformed = 2
	ExitUsage     = 3
)

// exitCoder wraps an error and specifies an exit code.
type exitCoder struct {
	cause error
	code  int
}

func (e *exitCoder) Error() string {
	return e.cause.Error()
}

func (e *exitCoder) Cause() error {
	return e.cause
}

func (e *exitCoder) Unwrap() error {
	return e.cause
}

// ExitCode returns the exit code.
func (e *exitCoder) ExitCode() int {
	return e.code
}

// WithExitCode attaches an exit code to an error.
// The exit code can be retrieved later using GetExitCode.
func WithExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &exitCoder{
		cause: err,
		code:  code,
	}
}

// GetExitCode extracts the exit code from an error chain.
//
// An explicit code attached with WithExitCode wins. Otherwise the sentinel in the chain
// decides: malformed manifests and lockfiles exit with ExitMalformed, configuration and
// usage errors with ExitUsage, and everything else (including ErrIO) with ExitIO.
func GetExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var ec *exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}

	switch {
	case errors.Is(err, ErrMalformedManifest),
		errors.Is(err, ErrMalformedLockfile),
		errors.Is(err, ErrUnsupportedLockfile),
		errors.Is(err, ErrMalformedSnapshot):
		return ExitMalformed
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrUnknownFormat),
		errors.Is(err, ErrInvalidWorkspaceGlob),
		errors.Is(err, ErrUsage):
		return ExitUsage
	}

	return ExitIO
}
