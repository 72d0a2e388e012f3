package cli

import (
	"github.com/spf13/cobra"
)

var rootAdmCmd = &cobra.Command{
	Use:   "tosumadm",
	Short: "Administrative CLI for the tosum database and NX-domain feeds",
	Long: `tosumadm is the administrative companion to tosum. It handles database
lifecycle (init, migrate), loading NX-domain coverage and version control
feeds, and health checks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteAdmin runs the admin root command.
func ExecuteAdmin() error {
	return rootAdmCmd.Execute()
}

func init() {
	addStoreFlags(rootAdmCmd)
}
