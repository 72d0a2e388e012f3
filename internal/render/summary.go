package render

import (
	"fmt"

	"github.com/lherron/tosum/internal/domain"
)

// Coverage badge levels, as shown next to percentages in table output.
const (
	BadgeGood = "good"
	BadgeWarn = "warn"
	BadgeInfo = "info"
	BadgeLow  = "low"
)

// CoverageBadge classifies a coverage percentage: >=90 good, >=80 warn,
// >=70 info, otherwise low. Nil yields "".
func CoverageBadge(v *float64) string {
	if v == nil {
		return ""
	}
	switch {
	case *v >= 90:
		return BadgeGood
	case *v >= 80:
		return BadgeWarn
	case *v >= 70:
		return BadgeInfo
	default:
		return BadgeLow
	}
}

// FormatCoverage renders a percentage with one decimal and its badge.
func FormatCoverage(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%% %s", *v, CoverageBadge(v))
}

// AbbreviateHash shortens a git version for display: full hashes keep 8
// characters, short hashes and tags are kept whole, anything longer is cut
// to 10 characters with an ellipsis.
func AbbreviateHash(hash string) string {
	switch n := len(hash); {
	case n == 0:
		return "-"
	case n == 40:
		return hash[:8]
	case n <= 10:
		return hash
	default:
		return hash[:10] + "..."
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// summaryTableHeaders is the condensed column set shown by table output.
var summaryTableHeaders = []string{
	"ID", "TASK", "PROJECT", "IP", "DV ENGINEER", "BU",
	"LINE", "FSM", "TOGGLE", "GIT", "TO DATE",
}

func summaryTableRow(v *domain.MergedProjectView) []string {
	id := "-"
	if v.ID != nil {
		id = fmt.Sprintf("%d", *v.ID)
	}
	toDate := "-"
	if v.TODate.Valid {
		toDate = v.TODate.Time.Format("2006-01-02")
	}
	gitVersion := ""
	if v.GitVersion != nil {
		gitVersion = *v.GitVersion
	}
	return []string{
		id, orDash(v.TaskIndex), v.ProjectName, orDash(v.IP), orDash(v.DVEngineer), orDash(v.BusinessUnit),
		FormatCoverage(v.LineCoverage), FormatCoverage(v.FSMCoverage), FormatCoverage(v.ToggleCoverage),
		AbbreviateHash(gitVersion), toDate,
	}
}

// textCells converts nullable cells to strings with nil as "".
func textCells(cells []*string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c != nil {
			out[i] = *c
		}
	}
	return out
}

// SummaryRecords returns the merged view as text records with the column
// names as header row. Nulls are empty cells.
func SummaryRecords(rows []*domain.MergedProjectView) (headers []string, records [][]string) {
	records = make([][]string, len(rows))
	for i, v := range rows {
		records[i] = textCells(v.Cells())
	}
	return domain.MergedColumns, records
}

// RenderSummary renders the merged view in the configured format.
func (r *Renderer) RenderSummary(rows []*domain.MergedProjectView) error {
	switch r.opts.Format {
	case FormatJSON:
		if rows == nil {
			rows = []*domain.MergedProjectView{}
		}
		return r.RenderJSON(rows)
	case FormatNDJSON:
		items := make([]any, len(rows))
		for i, v := range rows {
			items[i] = v
		}
		return r.RenderNDJSON(items)
	case FormatYAML:
		return r.RenderYAML(rows)
	case FormatTSV:
		headers, records := SummaryRecords(rows)
		return r.RenderTSV(headers, records)
	case FormatCSV:
		headers, records := SummaryRecords(rows)
		return r.RenderCSV(headers, records)
	case FormatXML:
		cells := make([][]*string, len(rows))
		for i, v := range rows {
			cells[i] = v.Cells()
		}
		return r.RenderXML("to_summary", "project", domain.MergedColumns, cells)
	case FormatXLSX:
		records := make([][]any, len(rows))
		for i, v := range rows {
			records[i] = summaryXLSXRow(v)
		}
		return r.RenderXLSX(domain.MergedColumns, records)
	default:
		records := make([][]string, len(rows))
		for i, v := range rows {
			records[i] = summaryTableRow(v)
		}
		return r.RenderTable(summaryTableHeaders, records)
	}
}

func summaryXLSXRow(v *domain.MergedProjectView) []any {
	cells := v.Cells()
	row := make([]any, len(cells))
	numeric := map[string]*float64{
		"line_coverage":             v.LineCoverage,
		"fsm_coverage":              v.FSMCoverage,
		"interface_toggle_coverage": v.InterfaceToggleCoverage,
		"toggle_coverage":           v.ToggleCoverage,
	}
	for i, col := range domain.MergedColumns {
		switch {
		case col == "id" && v.ID != nil:
			row[i] = *v.ID
		case numeric[col] != nil:
			row[i] = *numeric[col]
		case cells[i] != nil:
			row[i] = *cells[i]
		default:
			row[i] = nil
		}
	}
	return row
}

// RenderDetail renders one merged row as a two-column field/value table, or
// as a single document in structured formats.
func (r *Renderer) RenderDetail(v *domain.MergedProjectView) error {
	switch r.opts.Format {
	case FormatTable, "":
		cells := v.Cells()
		records := make([][]string, 0, len(cells))
		for i, col := range domain.MergedColumns {
			value := "-"
			if cells[i] != nil && *cells[i] != "" {
				value = *cells[i]
			}
			switch col {
			case "line_coverage":
				value = FormatCoverage(v.LineCoverage)
			case "fsm_coverage":
				value = FormatCoverage(v.FSMCoverage)
			case "interface_toggle_coverage":
				value = FormatCoverage(v.InterfaceToggleCoverage)
			case "toggle_coverage":
				value = FormatCoverage(v.ToggleCoverage)
			}
			records = append(records, []string{col, value})
		}
		return r.RenderTable([]string{"FIELD", "VALUE"}, records)
	case FormatJSON:
		return r.RenderJSON(v)
	case FormatYAML:
		return r.RenderYAML(v)
	default:
		return r.RenderSummary([]*domain.MergedProjectView{v})
	}
}

// ProjectRecords returns IT-domain projects as text records with the column
// names as header row.
func ProjectRecords(projects []*domain.ProjectRecord) (headers []string, records [][]string) {
	records = make([][]string, len(projects))
	for i, p := range projects {
		records[i] = p.Values()
	}
	return domain.ProjectColumns, records
}

// RenderProjects renders IT-domain projects in the configured format.
func (r *Renderer) RenderProjects(projects []*domain.ProjectRecord) error {
	headers, records := ProjectRecords(projects)
	switch r.opts.Format {
	case FormatJSON:
		if projects == nil {
			projects = []*domain.ProjectRecord{}
		}
		return r.RenderJSON(projects)
	case FormatNDJSON:
		items := make([]any, len(projects))
		for i, p := range projects {
			items[i] = p
		}
		return r.RenderNDJSON(items)
	case FormatYAML:
		return r.RenderYAML(projects)
	case FormatTSV:
		return r.RenderTSV(headers, records)
	case FormatCSV:
		return r.RenderCSV(headers, records)
	case FormatXML:
		cells := make([][]*string, len(records))
		for i, rec := range records {
			cells[i] = make([]*string, len(rec))
			for j := range rec {
				cells[i][j] = &rec[j]
			}
		}
		return r.RenderXML("projects", "project", headers, cells)
	case FormatXLSX:
		rows := make([][]any, len(records))
		for i, rec := range records {
			rows[i] = make([]any, len(rec))
			for j, v := range rec {
				rows[i][j] = v
			}
		}
		return r.RenderXLSX(headers, rows)
	default:
		table := make([][]string, len(projects))
		for i, p := range projects {
			table[i] = []string{
				fmt.Sprintf("%d", p.ID), p.TaskIndex, p.ProjectName, p.IP, p.IPSubtype,
				p.DVEngineer, p.BusinessUnit, p.ReuseIP,
			}
		}
		return r.RenderTable([]string{"ID", "TASK", "PROJECT", "IP", "SUBTYPE", "DV ENGINEER", "BU", "REUSE"}, table)
	}
}
