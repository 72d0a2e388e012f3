package tosum

import (
	"context"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/lherron/tosum/internal/bulk"
	"github.com/lherron/tosum/internal/domain"
	"github.com/lherron/tosum/internal/ingest"
)

// Preview actions.
const (
	ActionCreate    = "create"
	ActionUpdate    = "update"
	ActionUnchanged = "unchanged"
)

// PreviewRow describes what importing one accepted row would do to the
// snapshot.
type PreviewRow struct {
	ProjectName string `json:"project_name" yaml:"project_name"`
	Action      string `json:"action" yaml:"action"`
	Diff        string `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// Preview is the dry-run outcome of an import. Report holds the rows the
// normalizer rejected; nothing is written.
type Preview struct {
	Rows   []PreviewRow `json:"rows" yaml:"rows"`
	Report *bulk.Report `json:"report" yaml:"report"`
}

// Counts returns how many rows would be created, updated and left alone.
func (p *Preview) Counts() (created, updated, unchanged int) {
	for _, r := range p.Rows {
		switch r.Action {
		case ActionCreate:
			created++
		case ActionUpdate:
			updated++
		default:
			unchanged++
		}
	}
	return created, updated, unchanged
}

// PreviewFile normalizes a file and diffs every accepted row against the
// current snapshot without writing anything.
func (s *Service) PreviewFile(ctx context.Context, path, sheet string) (*Preview, error) {
	result, err := normalizeFile(path, sheet, ingest.ProjectSchema)
	if err != nil {
		return nil, err
	}
	return s.preview(ctx, result)
}

// PreviewBatch is PreviewFile for records already in memory.
func (s *Service) PreviewBatch(ctx context.Context, records [][]string) (*Preview, error) {
	result, err := ingest.Normalize(records)
	if err != nil {
		return nil, err
	}
	return s.preview(ctx, result)
}

func (s *Service) preview(ctx context.Context, result *ingest.Result) (*Preview, error) {
	preview := &Preview{Report: result.Report()}
	// Rows earlier in the file shadow the snapshot for later duplicates.
	pending := map[domain.ProjectKey]string{}

	for _, incoming := range result.Projects() {
		key := incoming.Key()
		before, ok := pending[key]
		if !ok {
			current, err := s.store.Snapshot.Get(ctx, key.String())
			switch {
			case err == nil:
				before = describe(current.ProjectRecord)
			case domain.IsNotFound(err):
			default:
				return nil, err
			}
		}

		after := describe(incoming)
		row := PreviewRow{ProjectName: key.String()}
		switch {
		case before == "":
			row.Action = ActionCreate
			row.Diff = unifiedDiff("", after, key.String())
		case before == after:
			row.Action = ActionUnchanged
		default:
			row.Action = ActionUpdate
			row.Diff = unifiedDiff(before, after, key.String())
		}
		preview.Rows = append(preview.Rows, row)
		pending[key] = after
	}
	return preview, nil
}

// describe renders the importable columns one per line, in column order.
func describe(p domain.ProjectRecord) string {
	p.ProjectName = p.Key().String()
	if p.IPSubtype == "" {
		p.IPSubtype = domain.DefaultIPSubtype
	}
	var b strings.Builder
	for i, v := range p.Values() {
		fmt.Fprintf(&b, "%s: %s\n", domain.ProjectColumns[i], v)
	}
	return b.String()
}

func unifiedDiff(before, after, name string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "snapshot/" + name,
		ToFile:   "incoming/" + name,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}
