package render

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatTable  Format = "table"
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
	FormatTSV    Format = "tsv"
	FormatCSV    Format = "csv"
	FormatXML    Format = "xml"
	FormatXLSX   Format = "xlsx"
)

// Formats lists every supported format in help order.
var Formats = []Format{FormatTable, FormatJSON, FormatNDJSON, FormatYAML, FormatTSV, FormatCSV, FormatXML, FormatXLSX}

// ParseFormat validates a format name. Empty selects the table format.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatTable, nil
	}
	for _, f := range Formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Options for rendering.
type Options struct {
	Format    Format
	Porcelain bool
	Sheet     string // worksheet name for xlsx output
}

// Renderer handles output rendering.
type Renderer struct {
	writer io.Writer
	opts   Options
}

// NewRenderer creates a new renderer.
func NewRenderer(writer io.Writer, opts Options) *Renderer {
	return &Renderer{
		writer: writer,
		opts:   opts,
	}
}

// RenderJSON renders data as JSON.
func (r *Renderer) RenderJSON(data any) error {
	encoder := json.NewEncoder(r.writer)
	if !r.opts.Porcelain {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// RenderNDJSON renders data as newline-delimited JSON.
func (r *Renderer) RenderNDJSON(items []any) error {
	encoder := json.NewEncoder(r.writer)
	for _, item := range items {
		if err := encoder.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

// RenderYAML renders data as YAML.
func (r *Renderer) RenderYAML(data any) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(data)
}

// RenderTSV renders data as tab-separated values.
func (r *Renderer) RenderTSV(headers []string, rows [][]string) error {
	// Write header
	if _, err := fmt.Fprintln(r.writer, strings.Join(headers, "\t")); err != nil {
		return err
	}

	// Write rows
	for _, row := range rows {
		if _, err := fmt.Fprintln(r.writer, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return nil
}

// RenderCSV renders data as RFC 4180 comma-separated values. Values with
// commas, quotes or newlines are quoted so the output reads back unchanged.
func (r *Renderer) RenderCSV(headers []string, rows [][]string) error {
	w := csv.NewWriter(r.writer)
	if err := w.Write(headers); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

// RenderXML renders rows as <root><item><column>value</column>...</item></root>.
// Nil cells are omitted.
func (r *Renderer) RenderXML(root, item string, headers []string, rows [][]*string) error {
	if _, err := io.WriteString(r.writer, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(r.writer)
	if !r.opts.Porcelain {
		enc.Indent("", "  ")
	}

	rootStart := xml.StartElement{Name: xml.Name{Local: root}}
	if err := enc.EncodeToken(rootStart); err != nil {
		return err
	}
	for _, row := range rows {
		itemStart := xml.StartElement{Name: xml.Name{Local: item}}
		if err := enc.EncodeToken(itemStart); err != nil {
			return err
		}
		for i, cell := range row {
			if cell == nil || i >= len(headers) {
				continue
			}
			if err := enc.EncodeElement(*cell, xml.StartElement{Name: xml.Name{Local: headers[i]}}); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(itemStart.End()); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(rootStart.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(r.writer, "\n")
	return err
}

// RenderXLSX writes a single-sheet workbook with a header row. Cells that
// are numbers are stored as numbers; nil cells are left empty.
func (r *Renderer) RenderXLSX(headers []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := r.opts.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	_, err := f.WriteTo(r.writer)
	return err
}

// RenderTable renders data as a formatted table.
func (r *Renderer) RenderTable(headers []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	// Render header
	if !r.opts.Porcelain {
		r.renderTableRow(headers, widths)
		r.renderTableSeparator(widths)
	} else {
		// Porcelain mode: just tab-separated
		fmt.Fprintln(r.writer, strings.Join(headers, "\t"))
	}

	// Render rows
	for _, row := range rows {
		if r.opts.Porcelain {
			fmt.Fprintln(r.writer, strings.Join(row, "\t"))
		} else {
			r.renderTableRow(row, widths)
		}
	}

	return nil
}

func (r *Renderer) renderTableRow(cells []string, widths []int) {
	for i, cell := range cells {
		if i < len(widths) {
			fmt.Fprintf(r.writer, "%-*s", widths[i], cell)
			if i < len(cells)-1 {
				fmt.Fprint(r.writer, "  ")
			}
		}
	}
	fmt.Fprintln(r.writer)
}

func (r *Renderer) renderTableSeparator(widths []int) {
	for i, width := range widths {
		fmt.Fprint(r.writer, strings.Repeat("-", width))
		if i < len(widths)-1 {
			fmt.Fprint(r.writer, "  ")
		}
	}
	fmt.Fprintln(r.writer)
}
