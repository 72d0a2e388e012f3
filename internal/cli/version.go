package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/tosum/internal/render"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionJSON bool

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Displays version, commit, and build date information.`,
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
	cmd.Flags().BoolVar(&versionJSON, "json", false, "Output as JSON")
	return cmd
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootAdmCmd.AddCommand(newVersionCmd())
}

func runVersion(cmd *cobra.Command, args []string) error {
	if versionJSON {
		formats := make([]string, len(render.Formats))
		for i, f := range render.Formats {
			formats[i] = string(f)
		}
		r := render.NewRenderer(cmd.OutOrStdout(), render.Options{Format: render.FormatJSON})
		return r.RenderJSON(map[string]any{
			"version":           Version,
			"commit":            GitCommit,
			"build_date":        BuildDate,
			"supported_formats": formats,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", cmd.Root().Name(), Version)
	fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", GitCommit)
	fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", BuildDate)
	return nil
}
