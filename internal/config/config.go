// Package config merges flags, PKGDRIFT_ environment variables, a .env file and an optional
// .pkgdrift.yaml in the project root. Precedence is flag > env > file > default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/internal/logger"
	"github.com/acheong08/pkgdrift/internal/render"
	"github.com/acheong08/pkgdrift/internal/tree"
	"github.com/acheong08/pkgdrift/pkg/models"
)

// Configuration keys. Flags use the same names.
const (
	KeyRoot       = "root"
	KeyLockfile   = "lockfile"
	KeyDepth      = "depth"
	KeyDev        = "dev"
	KeyDevPolicy  = "dev-policy"
	KeyFormat     = "format"
	KeyColor      = "color"
	KeyTransitive = "transitive"
	KeyLogLevel   = "log-level"
)

const (
	EnvPrefix = "PKGDRIFT"
	FileName  = ".pkgdrift.yaml"
	EnvFile   = ".env"
)

// Config is the resolved configuration for one invocation.
type Config struct {
	Root       string
	Lockfile   string
	Depth      int
	Dev        bool
	DevPolicy  models.MergePolicy
	Format     render.Format
	Color      bool
	Transitive bool
	LogLevel   string
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyRoot, ".")
	v.SetDefault(KeyLockfile, "")
	v.SetDefault(KeyDepth, -1)
	v.SetDefault(KeyDev, false)
	v.SetDefault(KeyDevPolicy, string(models.DevWins))
	v.SetDefault(KeyFormat, string(render.FormatText))
	v.SetDefault(KeyColor, true)
	v.SetDefault(KeyTransitive, false)
	v.SetDefault(KeyLogLevel, "warn")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds every flag in flags that matches a configuration key.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range []string{KeyRoot, KeyLockfile, KeyDepth, KeyDev, KeyDevPolicy, KeyFormat, KeyColor, KeyTransitive, KeyLogLevel} {
		f := flags.Lookup(key)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "binding flag %s", key)
		}
	}
	return nil
}

// Load reads the .env file in the working directory, then the config file in the
// configured root, and returns the validated result.
func Load(v *viper.Viper) (*Config, error) {
	if err := godotenv.Load(EnvFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: reading %s: %v", errUtils.ErrInvalidConfig, EnvFile, err)
	}

	path := filepath.Join(v.GetString(KeyRoot), FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", errUtils.ErrInvalidConfig, path, err)
		}
		log.Debug("Loaded config file", "path", path)
	}

	cfg := &Config{
		Root:       v.GetString(KeyRoot),
		Lockfile:   v.GetString(KeyLockfile),
		Depth:      v.GetInt(KeyDepth),
		Dev:        v.GetBool(KeyDev),
		DevPolicy:  models.MergePolicy(strings.ToLower(v.GetString(KeyDevPolicy))),
		Format:     render.Format(strings.ToLower(v.GetString(KeyFormat))),
		Color:      v.GetBool(KeyColor),
		Transitive: v.GetBool(KeyTransitive),
		LogLevel:   v.GetString(KeyLogLevel),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown formats, policies, levels and negative depths other than -1.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("%w: root must not be empty", errUtils.ErrInvalidConfig)
	}
	if c.Depth < -1 {
		return fmt.Errorf("%w: depth %d (use -1 for unlimited)", errUtils.ErrInvalidConfig, c.Depth)
	}
	if !lo.Contains([]models.MergePolicy{models.DevWins, models.ProdWins}, c.DevPolicy) {
		return fmt.Errorf("%w: dev-policy %q (expected %s or %s)",
			errUtils.ErrInvalidConfig, c.DevPolicy, models.DevWins, models.ProdWins)
	}
	if !lo.Contains(render.Formats, c.Format) {
		return fmt.Errorf("%w: format %q (expected one of %v)", errUtils.ErrInvalidConfig, c.Format, render.Formats)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// TreeOptions converts the tree settings.
func (c *Config) TreeOptions() tree.Options {
	return tree.Options{
		MaxDepth:   c.Depth,
		IncludeDev: c.Dev,
		Policy:     c.DevPolicy,
	}
}
