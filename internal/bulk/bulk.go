package bulk

import (
	"fmt"
	"io"
)

// Report is the aggregate outcome of an import batch. Row-level failures are
// collected as messages; a batch-level failure is carried in Err and means
// nothing from the batch was persisted.
type Report struct {
	BatchID      string   `json:"batch_id,omitempty" yaml:"batch_id,omitempty"`
	TotalItems   int      `json:"total_items" yaml:"total_items"`
	SuccessCount int      `json:"success_count" yaml:"success_count"`
	ErrorCount   int      `json:"error_count" yaml:"error_count"`
	Errors       []string `json:"errors" yaml:"errors"`
	Err          error    `json:"-" yaml:"-"`
}

// NewReport returns an empty report for a batch.
func NewReport(batchID string) *Report {
	return &Report{BatchID: batchID, Errors: []string{}}
}

// Succeed records one persisted item.
func (r *Report) Succeed() {
	r.TotalItems++
	r.SuccessCount++
}

// Fail records one rejected item.
func (r *Report) Fail(err error) {
	r.TotalItems++
	r.ErrorCount++
	r.Errors = append(r.Errors, err.Error())
}

// Abort marks the whole batch as failed. Successes recorded so far were
// rolled back with the batch, so they are moved to the error count.
func (r *Report) Abort(err error) {
	r.ErrorCount += r.SuccessCount
	r.SuccessCount = 0
	r.Err = err
	r.Errors = append(r.Errors, err.Error())
}

// Merge folds another report's row outcomes into r, keeping r's batch ID.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.TotalItems += other.TotalItems
	r.SuccessCount += other.SuccessCount
	r.ErrorCount += other.ErrorCount
	r.Errors = append(r.Errors, other.Errors...)
	if r.Err == nil {
		r.Err = other.Err
	}
}

// ExitCode returns the appropriate exit code for the report.
func (r *Report) ExitCode() int {
	if r.Err == nil && r.ErrorCount == 0 {
		return 0 // All succeeded
	}
	if r.SuccessCount > 0 {
		return 5 // Partial success
	}
	return 1 // All failed
}

// PrintSummary prints a human-readable summary of the report.
func (r *Report) PrintSummary(w io.Writer) {
	switch {
	case r.Err != nil:
		fmt.Fprintf(w, "\n✗ Batch rolled back: %v\n", r.Err)
	case r.ErrorCount == 0:
		fmt.Fprintf(w, "\n✓ All %d rows imported\n", r.TotalItems)
	case r.SuccessCount == 0:
		fmt.Fprintf(w, "\n✗ All %d rows failed\n", r.TotalItems)
	default:
		fmt.Fprintf(w, "\n⚠ Partial success: %d imported, %d failed (out of %d)\n",
			r.SuccessCount, r.ErrorCount, r.TotalItems)
	}

	if len(r.Errors) > 0 && len(r.Errors) <= 10 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	} else if len(r.Errors) > 10 {
		fmt.Fprintf(w, "\nShowing first 10 errors (of %d):\n", len(r.Errors))
		for _, e := range r.Errors[:10] {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}
