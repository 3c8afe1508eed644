package main

import (
	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [package...]",
		Short: "Report missing and out-of-range dependencies",
		Long: `Build the trees of the named packages (all project packages by default) and list
every dependency that is not installed or whose installed version does not satisfy
the declared range. Findings are reported, not treated as failures.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			report := session.Check(args)
			if !report.OK() {
				log.Info("Dependencies need attention", "findings", len(report.Findings))
			}
			return a.renderer.RenderCheck(cmd.OutOrStdout(), report)
		},
	}
}
