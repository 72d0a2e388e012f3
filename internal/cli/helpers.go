package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lherron/tosum/internal/bulk"
	"github.com/lherron/tosum/internal/cli/appctx"
	"github.com/lherron/tosum/internal/domain"
	"github.com/lherron/tosum/internal/render"
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitError returns an error that will cause the CLI to exit with the given code.
func exitError(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

// ExitCode maps a command error to a process exit code: 0 for nil, the
// carried code for an ExitError, 3 for a failed lookup, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if domain.IsNotFound(err) {
		return 3
	}
	return 1
}

// newRenderer builds a renderer for the configured output format.
func newRenderer(app *appctx.App, cmd *cobra.Command) (*render.Renderer, error) {
	format, err := render.ParseFormat(app.Config.Output)
	if err != nil {
		return nil, exitError(2, err)
	}
	porcelain := false
	if f := cmd.Flag("porcelain"); f != nil {
		porcelain = f.Value.String() == "true"
	}
	return render.NewRenderer(cmd.OutOrStdout(), render.Options{
		Format:    format,
		Porcelain: porcelain,
		Sheet:     "TO Summary",
	}), nil
}

// finishReport prints a batch report and turns its outcome into the
// command's exit status: 0 all rows ok, 5 partial success, 1 all failed.
func finishReport(w io.Writer, report *bulk.Report) error {
	report.PrintSummary(w)
	if code := report.ExitCode(); code != 0 {
		if report.Err != nil {
			return exitError(code, report.Err)
		}
		return exitError(code, fmt.Errorf("%d of %d rows failed", report.ErrorCount, report.TotalItems))
	}
	return nil
}
