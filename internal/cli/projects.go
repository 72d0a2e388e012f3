package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lherron/tosum/internal/cli/appctx"
	"github.com/lherron/tosum/internal/domain"
	"github.com/lherron/tosum/internal/render"
	"github.com/lherron/tosum/internal/store"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage IT-domain project records",
	Long: `Projects manages the IT-domain project table: the records that are
exported and imported into the NX-side snapshot. Projects are never deleted.

Fields are set with --set column=value, using the same column names as the
import file header (project_name, ip, dv_engineer, business_unit, ...).`,
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects ordered by name",
	Long: `List prints the IT-domain projects ordered by project name.

Examples:
  tosum projects list
  tosum projects list --limit 50
  tosum projects list --limit 50 --cursor <next_cursor>`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.DefaultOptions(), runProjectsList),
}

var projectsAddCmd = &cobra.Command{
	Use:   "add <project_name>",
	Short: "Create a project",
	Long: `Add creates a project. When task_index is not set, the next free TASKnnn
index is allocated.

Examples:
  tosum projects add usb_phy --set ip=usb --set business_unit=CN
  tosum projects add ddr_ctrl --set task_index=TASK120`,
	Args: cobra.ExactArgs(1),
	RunE: appctx.WithApp(appctx.DefaultOptions(), runProjectsAdd),
}

var projectsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of a project",
	Long: `Update changes fields of the project with the given id.

Examples:
  tosum projects update 3 --set dv_engineer=kim --set reuse_ip=Y`,
	Args: cobra.ExactArgs(1),
	RunE: appctx.WithApp(appctx.DefaultOptions(), runProjectsUpdate),
}

var projectsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all projects for import on the NX side",
	Long: `Export writes every project with the full column set, CSV by default.
The output is accepted unchanged by 'tosum import'.

Examples:
  tosum projects export > projects.csv
  tosum projects export -o xlsx > projects.xlsx`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.DefaultOptions(), runProjectsExport),
}

var (
	projectsLimit  int
	projectsCursor string
	projectsSet    []string
)

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.AddCommand(projectsListCmd, projectsAddCmd, projectsUpdateCmd, projectsExportCmd)

	projectsListCmd.Flags().IntVar(&projectsLimit, "limit", 0, "Maximum number of results to return (0 = no limit)")
	projectsListCmd.Flags().StringVar(&projectsCursor, "cursor", "", "Pagination cursor from previous page")

	for _, c := range []*cobra.Command{projectsAddCmd, projectsUpdateCmd} {
		c.Flags().StringArrayVar(&projectsSet, "set", nil, "Set a field (column=value), repeatable")
	}
}

func runProjectsList(app *appctx.App, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var (
		projects []*domain.ProjectRecord
		next     string
		err      error
	)
	if projectsLimit > 0 || projectsCursor != "" {
		limit := projectsLimit
		if limit <= 0 {
			limit = 100
		}
		projects, next, err = app.Store.Projects.ListPage(ctx, limit, projectsCursor)
	} else {
		projects, err = app.Store.Projects.List(ctx)
	}
	if err != nil {
		return err
	}

	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}
	if err := r.RenderProjects(projects); err != nil {
		return err
	}
	if next != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "next_cursor: %s\n", next)
	}
	return nil
}

func runProjectsAdd(app *appctx.App, cmd *cobra.Command, args []string) error {
	fields, err := parseSetFlags(projectsSet)
	if err != nil {
		return exitError(2, err)
	}
	fields["project_name"] = args[0]

	record, err := store.ProjectFromFields(fields)
	if err != nil {
		return exitError(2, err)
	}
	created, err := app.Store.Projects.Create(cmd.Context(), record)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (id %d, %s)\n", created.ProjectName, created.ID, created.TaskIndex)
	return nil
}

func runProjectsUpdate(app *appctx.App, cmd *cobra.Command, args []string) error {
	projectID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return exitError(2, fmt.Errorf("invalid project id %q", args[0]))
	}
	fields, err := parseSetFlags(projectsSet)
	if err != nil {
		return exitError(2, err)
	}
	if len(fields) == 0 {
		return exitError(2, fmt.Errorf("nothing to update (use --set column=value)"))
	}

	updated, err := app.Store.Projects.Update(cmd.Context(), projectID, fields)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s (id %d)\n", updated.ProjectName, updated.ID)
	return nil
}

func runProjectsExport(app *appctx.App, cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("format") && (app.Config.Output == "" || app.Config.Output == string(render.FormatTable)) {
		app.Config.Output = string(render.FormatCSV)
	}

	projects, err := app.Store.Projects.List(cmd.Context())
	if err != nil {
		return err
	}
	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}
	return r.RenderProjects(projects)
}

// parseSetFlags turns column=value pairs into a field map.
func parseSetFlags(pairs []string) (map[string]string, error) {
	fields := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		col, value, ok := strings.Cut(pair, "=")
		col = strings.ToLower(strings.TrimSpace(col))
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid --set %q (want column=value)", pair)
		}
		fields[col] = value
	}
	return fields, nil
}
