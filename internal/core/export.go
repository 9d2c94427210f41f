package core

// export.go materializes a user-chosen, user-ordered subset of fields over a
// filtered record set as CSV or a PDF table.
//
// An Exporter has its own status and date filters, independent of the grid's
// search, sort and pagination. The field order is authoritative: the header
// row and every data row follow Included() exactly.

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
)

// PreviewSizes are the selectable preview lengths.
var PreviewSizes = []int{3, 5, 10}

// DefaultPreviewRows is the initial preview length.
const DefaultPreviewRows = 5

// MaxPreviewCellWidth bounds preview cell text in terminal/display columns.
const MaxPreviewCellWidth = 32

// DefaultExportTitle heads PDF exports when the grid sets none.
const DefaultExportTitle = "Data Export"

// MoveItem returns a copy of list with the element at from moved to index to.
// Out-of-range indices return an unchanged copy.
func MoveItem[T any](list []T, from, to int) []T {
	out := slices.Clone(list)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}

// Preview is the first rows of an export, truncated for display.
type Preview struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
}

// Exporter holds the state of one export dialog.
type Exporter struct {
	entity      string
	title       string
	records     []Record
	statusField string
	status      string
	dateRange   DateRange
	fields      []ExportField
	excluded    map[string]bool
	previewRows int
}

// NewExporter creates an exporter over records with every field of def included.
func NewExporter(def Definition, records []Record) *Exporter {
	title := def.ExportTitle
	if title == "" {
		title = DefaultExportTitle
	}
	entity := def.Entity
	if entity == "" {
		entity = def.Key
	}
	return &Exporter{
		entity:      entity,
		title:       title,
		records:     CleanRecords(records),
		statusField: def.StatusField,
		fields:      slices.Clone(def.ExportFields),
		excluded:    make(map[string]bool),
		previewRows: DefaultPreviewRows,
	}
}

// Entity names the exported records ("applicants").
func (e *Exporter) Entity() string {
	return e.entity
}

// Title is the PDF page title.
func (e *Exporter) Title() string {
	return e.title
}

// SetTitle overrides the PDF page title.
func (e *Exporter) SetTitle(title string) {
	if title != "" {
		e.title = title
	}
}

// SetStatusFilter limits the export to one status ("" or "all" exports every record).
func (e *Exporter) SetStatusFilter(status string) {
	if strings.EqualFold(status, "all") {
		status = ""
	}
	e.status = status
}

// SetDateRange limits the export by the first populated date field.
func (e *Exporter) SetDateRange(r DateRange) error {
	if err := r.Validate(); err != nil {
		return err
	}
	e.dateRange = r
	return nil
}

// SetPreviewRows selects one of PreviewSizes.
func (e *Exporter) SetPreviewRows(n int) error {
	if !slices.Contains(PreviewSizes, n) {
		return fmt.Errorf("%w: preview must be one of %v", ErrInvalidPageSize, PreviewSizes)
	}
	e.previewRows = n
	return nil
}

// ToggleField flips the inclusion of one field.
func (e *Exporter) ToggleField(key string) {
	if e.excluded[key] {
		delete(e.excluded, key)
		return
	}
	if e.hasField(key) {
		e.excluded[key] = true
	}
}

// SelectAll includes every known field.
func (e *Exporter) SelectAll() {
	e.excluded = make(map[string]bool)
}

// SelectNone excludes every known field.
func (e *Exporter) SelectNone() {
	for _, f := range e.fields {
		e.excluded[f.Key] = true
	}
}

// Reorder moves the field at from to index to.
func (e *Exporter) Reorder(from, to int) {
	e.fields = MoveItem(e.fields, from, to)
}

// SetFieldOrder reorders fields to match keys. Unknown keys are ignored and
// fields not named keep their relative order after the named ones.
func (e *Exporter) SetFieldOrder(keys []string) {
	ordered := make([]ExportField, 0, len(e.fields))
	used := make(map[string]bool, len(keys))
	for _, k := range keys {
		for _, f := range e.fields {
			if f.Key == k && !used[k] {
				ordered = append(ordered, f)
				used[k] = true
			}
		}
	}
	for _, f := range e.fields {
		if !used[f.Key] {
			ordered = append(ordered, f)
		}
	}
	e.fields = ordered
}

// Fields returns every field in export order.
func (e *Exporter) Fields() []ExportField {
	return slices.Clone(e.fields)
}

// IsIncluded reports whether a field will be exported.
func (e *Exporter) IsIncluded(key string) bool {
	return e.hasField(key) && !e.excluded[key]
}

// Included returns the exported fields in export order.
func (e *Exporter) Included() []ExportField {
	out := make([]ExportField, 0, len(e.fields))
	for _, f := range e.fields {
		if !e.excluded[f.Key] {
			out = append(out, f)
		}
	}
	return out
}

func (e *Exporter) hasField(key string) bool {
	return slices.ContainsFunc(e.fields, func(f ExportField) bool { return f.Key == key })
}

// Filtered returns the records passing the export's status and date filters,
// in input order.
func (e *Exporter) Filtered() []Record {
	out := make([]Record, 0, len(e.records))
	for _, r := range e.records {
		if e.status != "" && !matchesStatus(r, e.statusField, e.status) {
			continue
		}
		if !e.dateRange.IsZero() && !matchesDateRange(r, e.dateRange) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Table builds the header row and normalized data rows.
func (e *Exporter) Table() ([]string, [][]string, error) {
	fields := e.Included()
	if len(fields) == 0 {
		return nil, nil, ErrNoFieldsSelected
	}

	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = f.Label
	}

	records := e.Filtered()
	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(fields))
		for j, f := range fields {
			row[j] = FormatExportValue(f.Key, FieldValue(r, f.Key))
		}
		rows[i] = row
	}
	return headers, rows, nil
}

// Preview renders the first preview rows with cell text truncated to
// MaxPreviewCellWidth display columns.
func (e *Exporter) Preview() Preview {
	headers, rows, err := e.Table()
	if err != nil {
		return Preview{Headers: []string{}, Rows: [][]string{}}
	}
	p := Preview{Headers: headers, Total: len(rows)}
	n := min(e.previewRows, len(rows))
	p.Rows = make([][]string, n)
	for i := range n {
		row := make([]string, len(rows[i]))
		for j, cell := range rows[i] {
			row[j] = runewidth.Truncate(cell, MaxPreviewCellWidth, "…")
		}
		p.Rows[i] = row
	}
	return p
}

// WriteCSV writes the export as CSV. Nothing is written when no field is included.
func (e *Exporter) WriteCSV(w io.Writer) error {
	headers, rows, err := e.Table()
	if err != nil {
		return err
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(headers); err != nil {
		return fmt.Errorf("export failed: write header: %w", err)
	}
	if err := csvWriter.WriteAll(rows); err != nil {
		return fmt.Errorf("export failed: write rows: %w", err)
	}
	return nil
}

// Filename returns "<entity>_export.<format>".
func (e *Exporter) Filename(format ExportFormat) string {
	return ExportFilename(e.entity, format)
}

// ExportFilename returns "<entity>_export.<format>".
func ExportFilename(entity string, format ExportFormat) string {
	return fmt.Sprintf("%s_export.%s", entity, format)
}

// Write dispatches to the serializer for format.
func (e *Exporter) Write(w io.Writer, format ExportFormat) error {
	switch format {
	case FormatCSV:
		return e.WriteCSV(w)
	case FormatPDF:
		return e.WritePDF(w)
	default:
		return fmt.Errorf("invalid request: unknown export format %q", format)
	}
}
