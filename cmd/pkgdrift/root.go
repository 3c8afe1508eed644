package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/internal/config"
	"github.com/acheong08/pkgdrift/internal/drift"
	"github.com/acheong08/pkgdrift/internal/logger"
	"github.com/acheong08/pkgdrift/internal/render"
)

// app carries the configuration resolved before each subcommand runs.
type app struct {
	v        *viper.Viper
	cfg      *config.Config
	renderer render.Renderer
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	cmd := &cobra.Command{
		Use:   "pkgdrift",
		Short: "Inspect installed npm dependency trees and the drift between them",
		Long: `pkgdrift reads package.json files and the installed node_modules of a project
(or its package-lock.json) and shows the dependency tree Node would actually load,
including packages hoisted by npm, yarn and pnpm workspaces.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := cmd.PersistentFlags()
	flags.String(config.KeyRoot, ".", "Project directory, the enclosing workspace root is used when there is one")
	flags.String(config.KeyLockfile, "", "Read installed versions from this package-lock.json instead of node_modules")
	flags.Int(config.KeyDepth, -1, "Maximum tree depth, -1 for unlimited")
	flags.Bool(config.KeyDev, false, "Include devDependencies of the project packages")
	flags.String(config.KeyDevPolicy, "dev-wins", "Which range wins when a name is in both dependency lists: dev-wins or prod-wins")
	flags.StringP(config.KeyFormat, "o", "text", "Output format: text, json or yaml")
	flags.Bool(config.KeyColor, true, "Colorize text output")
	flags.String(config.KeyLogLevel, "warn", "Log level: debug, info, warn, error or off")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUtils.ErrUsage, err)
	})

	cmd.AddCommand(
		newTreeCmd(a),
		newDiffCmd(a),
		newCheckCmd(a),
		newMembersCmd(a),
	)

	return cmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	if _, err := logger.Setup(cfg.LogLevel, cmd.ErrOrStderr()); err != nil {
		return err
	}
	renderer, err := render.New(cfg.Format, render.Options{Color: cfg.Color})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.renderer = renderer
	return nil
}

func (a *app) open(ctx context.Context) (*drift.Session, error) {
	return drift.Open(ctx, drift.Options{
		Root:       a.cfg.Root,
		Discover:   true,
		Lockfile:   a.cfg.Lockfile,
		Tree:       a.cfg.TreeOptions(),
		Transitive: a.cfg.Transitive,
	})
}

// usageArgs wraps a cobra argument validator so its failures exit with ExitUsage.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", errUtils.ErrUsage, err)
		}
		return nil
	}
}

// splitNames turns "a,b, c" into [a b c].
func splitNames(arg string) []string {
	return lo.Compact(lo.Map(strings.Split(arg, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}

func addTransitiveFlag(flags *pflag.FlagSet) {
	flags.Bool(config.KeyTransitive, false, "Compare every dependency below the roots, not only direct ones")
}
