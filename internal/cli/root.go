package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/lherron/tosum/internal/render"
)

var rootCmd = &cobra.Command{
	Use:   "tosum",
	Short: "TO summary for DV projects",
	Long: `tosum reconciles IT-domain project records with NX-domain coverage and
version control data into a single tape-out summary. It imports project
snapshots from CSV or XLSX files, looks up individual projects, and exports
the merged summary in table, delimited, or structured formats.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	addStoreFlags(rootCmd)
	rootCmd.PersistentFlags().StringP("format", "o", "", "Output format: "+formatNames()+" (overrides TOSUM_OUTPUT)")
	rootCmd.PersistentFlags().Bool("porcelain", false, "Machine-readable output (no indentation or table padding)")
	rootCmd.PersistentFlags().Bool("strict-orphans", false, "Include projects known only to version control")
}

// addStoreFlags registers the flags shared by tosum and tosumadm.
func addStoreFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("db", "", "Database path or URL (overrides TOSUM_DSN)")
	cmd.PersistentFlags().String("driver", "", "Database driver: sqlite3 or pgx (overrides TOSUM_DRIVER)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides TOSUM_LOG_LEVEL)")
}

func formatNames() string {
	names := make([]string, len(render.Formats))
	for i, f := range render.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
