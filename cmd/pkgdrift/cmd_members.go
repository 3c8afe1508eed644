package main

import (
	"github.com/spf13/cobra"
)

func newMembersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "List the root package and its workspace members",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderer.RenderMembers(cmd.OutOrStdout(), session.Project)
		},
	}
}
