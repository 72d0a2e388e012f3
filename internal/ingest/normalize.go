package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lherron/tosum/internal/bulk"
	"github.com/lherron/tosum/internal/domain"
)

// Row is one accepted data row keyed by header name. Every column of the
// input is retained, including ones the record types do not use.
type Row struct {
	Number int // 1-based data row number, header excluded
	Values map[string]string
}

// Get returns the value of a column, or "" when absent.
func (r Row) Get(column string) string {
	return r.Values[column]
}

// Project converts the row into an IT-domain record.
func (r Row) Project() domain.ProjectRecord {
	return domain.ProjectRecord{
		ProjectName:     domain.NormalizeKey(r.Get("project_name")).String(),
		SpipIP:          r.Get("spip_ip"),
		IP:              r.Get("ip"),
		IPPostfix:       r.Get("ip_postfix"),
		IPSubtype:       r.Get("ip_subtype"),
		AlternativeName: r.Get("alternative_name"),
		TaskIndex:       r.Get("task_index"),
		DVEngineer:      r.Get("dv_engineer"),
		DigitalDesigner: r.Get("digital_designer"),
		BusinessUnit:    r.Get("business_unit"),
		AnalogDesigner:  r.Get("analog_designer"),
		InheritFromIP:   r.Get("inherit_from_ip"),
		ReuseIP:         r.Get("reuse_ip"),
		SpipURL:         r.Get("spip_url"),
		WikiURL:         r.Get("wiki_url"),
		SpecVersion:     r.Get("spec_version"),
		SpecPath:        r.Get("spec_path"),
	}
}

// Coverage converts the row into a coverage record. Unparsable numbers or
// timestamps are reported as validation errors.
func (r Row) Coverage() (domain.CoverageRecord, error) {
	var errs domain.ValidationErrors
	rec := domain.CoverageRecord{
		ProjectName:        domain.NormalizeKey(r.Get("project_name")).String(),
		CoverageReportPath: r.optional("coverage_report_path"),
	}

	for _, f := range []struct {
		column string
		dst    **float64
	}{
		{"line_coverage", &rec.LineCoverage},
		{"fsm_coverage", &rec.FSMCoverage},
		{"interface_toggle_coverage", &rec.InterfaceToggleCoverage},
		{"toggle_coverage", &rec.ToggleCoverage},
	} {
		v, err := parsePercent(r.Get(f.column))
		if err != nil {
			errs = append(errs, &domain.ValidationError{Field: f.column, Value: r.Get(f.column), Reason: "must be a number"})
			continue
		}
		*f.dst = v
	}

	for _, f := range []struct {
		column string
		dst    *domain.NullTime
	}{
		{"to_date", &rec.TODate},
		{"rtl_last_update", &rec.RTLLastUpdate},
		{"to_report_creation", &rec.TOReportCreation},
	} {
		v, err := domain.ParseTimestamp(r.Get(f.column))
		if err != nil {
			errs = append(errs, &domain.ValidationError{Field: f.column, Value: r.Get(f.column), Reason: "must be a date or timestamp"})
			continue
		}
		*f.dst = v
	}

	if len(errs) > 0 {
		return rec, errs
	}
	return rec, nil
}

// VersionControl converts the row into a version control record.
func (r Row) VersionControl() domain.VersionControlRecord {
	return domain.VersionControlRecord{
		ProjectName:            domain.NormalizeKey(r.Get("project_name")).String(),
		SanitySVN:              r.optional("sanity_svn"),
		SanitySVNVer:           r.optional("sanity_svn_ver"),
		ReleaseSVN:             r.optional("release_svn"),
		ReleaseSVNVer:          r.optional("release_svn_ver"),
		GitPath:                r.optional("git_path"),
		GitVersion:             r.optional("git_version"),
		GoldenChecklist:        r.optional("golden_checklist"),
		GoldenChecklistVersion: r.optional("golden_checklist_version"),
	}
}

func (r Row) optional(column string) *string {
	v, ok := r.Values[column]
	if !ok || v == "" {
		return nil
	}
	return &v
}

func parsePercent(s string) (*float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Schema describes how rows of one record type are defaulted and checked.
type Schema struct {
	Name     string
	Defaults map[string]string
	Check    func(Row) error
}

// ProjectSchema normalizes IT-domain project rows.
var ProjectSchema = Schema{
	Name:     "project",
	Defaults: map[string]string{"ip_subtype": domain.DefaultIPSubtype},
	Check: func(r Row) error {
		p := r.Project()
		return domain.ValidateProject(&p)
	},
}

// CoverageSchema normalizes NX-domain coverage rows.
var CoverageSchema = Schema{
	Name: "coverage",
	Check: func(r Row) error {
		c, err := r.Coverage()
		if err != nil {
			return err
		}
		return domain.ValidateCoverage(&c)
	},
}

// VersionControlSchema normalizes NX-domain version control rows.
var VersionControlSchema = Schema{
	Name: "version_control",
	Check: func(r Row) error {
		vc := r.VersionControl()
		return domain.ValidateVersionControl(&vc)
	},
}

// Result is the outcome of normalizing one input file.
type Result struct {
	AcceptedRows []Row
	ErrorCount   int
	Errors       []string
}

// Projects returns the accepted rows as IT-domain records.
func (r *Result) Projects() []domain.ProjectRecord {
	out := make([]domain.ProjectRecord, 0, len(r.AcceptedRows))
	for _, row := range r.AcceptedRows {
		out = append(out, row.Project())
	}
	return out
}

// Report returns the rejected rows as an import report with no successes,
// ready to be merged with the store's report.
func (r *Result) Report() *bulk.Report {
	rep := bulk.NewReport("")
	for _, msg := range r.Errors {
		rep.Fail(errors.New(msg))
	}
	return rep
}

// Normalize validates project rows. See NormalizeWith.
func Normalize(records [][]string) (*Result, error) {
	return NormalizeWith(ProjectSchema, records)
}

// NormalizeWith turns raw records (header row first) into header-keyed rows.
// Each failing row is skipped and reported; the rest of the batch carries on.
// Structural problems reject the whole input with a MalformedInputError.
func NormalizeWith(schema Schema, records [][]string) (*Result, error) {
	if len(records) == 0 || blankRecord(records[0]) {
		return nil, &domain.MalformedInputError{Reason: "missing header row"}
	}

	header, err := parseHeader(records[0])
	if err != nil {
		return nil, err
	}

	data := records[1:]
	for len(data) > 0 && blankRecord(data[len(data)-1]) {
		data = data[:len(data)-1]
	}
	if len(data) == 0 {
		return nil, &domain.MalformedInputError{Reason: "no data rows"}
	}

	result := &Result{AcceptedRows: []Row{}, Errors: []string{}}
	for i, record := range data {
		number := i + 1
		if blankRecord(record) {
			continue
		}
		if len(record) != len(header) {
			result.reject(fmt.Errorf("row %d: expected %d fields, got %d", number, len(header), len(record)))
			continue
		}

		row := Row{Number: number, Values: make(map[string]string, len(header))}
		for j, col := range header {
			row.Values[col] = strings.TrimSpace(record[j])
		}
		for col, def := range schema.Defaults {
			if row.Values[col] == "" {
				row.Values[col] = def
			}
		}
		row.Values["project_name"] = domain.NormalizeKey(row.Values["project_name"]).String()

		if schema.Check != nil {
			if err := schema.Check(row); err != nil {
				var verrs domain.ValidationErrors
				if errors.As(err, &verrs) {
					err = verrs.WithRow(number)
				} else {
					err = fmt.Errorf("row %d: %w", number, err)
				}
				result.reject(err)
				continue
			}
		}

		result.AcceptedRows = append(result.AcceptedRows, row)
	}

	return result, nil
}

func (r *Result) reject(err error) {
	r.ErrorCount++
	r.Errors = append(r.Errors, err.Error())
}

func parseHeader(record []string) ([]string, error) {
	header := make([]string, len(record))
	seen := make(map[string]bool, len(record))
	for i, h := range record {
		col := strings.ToLower(strings.TrimSpace(h))
		if col == "" {
			return nil, &domain.MalformedInputError{Reason: fmt.Sprintf("blank header in column %d", i+1)}
		}
		if seen[col] {
			return nil, &domain.MalformedInputError{Reason: fmt.Sprintf("duplicate header %q", col)}
		}
		seen[col] = true
		header[i] = col
	}
	return header, nil
}
