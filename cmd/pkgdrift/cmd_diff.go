package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	errUtils "github.com/acheong08/pkgdrift/errors"
	"github.com/acheong08/pkgdrift/internal/aggregate"
)

func newDiffCmd(a *app) *cobra.Command {
	var baseline string

	cmd := &cobra.Command{
		Use:   "diff <left> <right>",
		Short: "Compare the resolved dependencies of two sets of packages",
		Long: `Compare the dependencies resolved for two sets of packages. Each side is a
comma separated list of names. Every dependency is reported as added, removed,
changed or unchanged going from left to right.

With --baseline the left side is a tree snapshot written by "pkgdrift tree -o json"
and the arguments name the packages to compare against it.`,
		Example: `  pkgdrift diff web api
  pkgdrift diff web,admin api --transitive
  pkgdrift diff --baseline tree.json`,
		Args: usageArgs(func(cmd *cobra.Command, args []string) error {
			if baseline != "" {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			if baseline != "" {
				trees, err := aggregate.LoadSnapshot(baseline)
				if err != nil {
					return err
				}
				return a.renderer.RenderDiff(cmd.OutOrStdout(), session.DiffBaseline(trees, args))
			}

			left, right := splitNames(args[0]), splitNames(args[1])
			if len(left) == 0 || len(right) == 0 {
				return errors.Wrap(errUtils.ErrUsage, "both sides of a diff need at least one package")
			}
			return a.renderer.RenderDiff(cmd.OutOrStdout(), session.Diff(left, right))
		},
	}

	addTransitiveFlag(cmd.Flags())
	cmd.Flags().StringVar(&baseline, "baseline", "", "Compare against trees saved with \"tree -o json\"")
	return cmd
}
