// Package logger configures the charm logger shared by the CLI and the report server.
package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	errUtils "github.com/acheong08/pkgdrift/errors"
)

// Levels accepted by ParseLevel.
var Levels = []string{"debug", "info", "warn", "error", "off"}

// LevelOff silences every message.
const LevelOff = log.FatalLevel + 1

// ParseLevel maps a level name to a charm log level.
func ParseLevel(level string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel, nil
	case "info", "":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	case "off", "none":
		return LevelOff, nil
	default:
		return log.InfoLevel, fmt.Errorf("%w: log level %q (expected one of %s)",
			errUtils.ErrInvalidConfig, level, strings.Join(Levels, ", "))
	}
}

// Setup points the default logger at w with the given level and returns it.
func Setup(level string, w io.Writer) (*log.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: lvl == log.DebugLevel,
		Prefix:          "pkgdrift",
	})
	log.SetDefault(logger)
	return logger, nil
}
