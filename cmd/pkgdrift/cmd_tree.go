package main

import (
	"github.com/spf13/cobra"
)

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [package...]",
		Short: "Show the resolved dependency tree of project packages",
		Long: `Show the resolved dependency tree of each named package. Names may be workspace
members, member directories relative to the root, or packages installed at the root.
Without names the root package and every workspace member are shown.`,
		Example: `  pkgdrift tree
  pkgdrift tree web api --depth 2
  pkgdrift tree -o json > tree.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderer.RenderTree(cmd.OutOrStdout(), session.Tree(args))
		},
	}
}
