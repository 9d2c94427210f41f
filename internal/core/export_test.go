package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportDefinition() Definition {
	return Definition{
		Key:         "applicants",
		Entity:      "applicants",
		StatusField: "status",
		ExportTitle: "Applicants",
		Columns:     []Column{{Accessor: "name"}},
		ExportFields: []ExportField{
			{Label: "Name", Key: "name"},
			{Label: "Email", Key: "email"},
			{Label: "Status", Key: "status"},
			{Label: "Applied", Key: "created_at"},
			{Label: "Fee", Key: "fee"},
		},
	}
}

func exportRecords() []Record {
	return []Record{
		{"id": 1, "name": "Amy", "email": "amy@example.com", "status": "approved", "created_at": "15/03/2024, 10:00 AM", "fee": 25},
		{"id": 2, "name": "Ben", "status": "pending", "created_at": "2024-04-02T08:00:00Z", "fee": "$1,200.5"},
		{"id": 3, "name": "Cy", "email": "cy@example.com", "status": "approved", "created_at": "not-a-date"},
		nil,
	}
}

func readCSV(t *testing.T, b []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestMoveItem(t *testing.T) {
	list := []string{"a", "b", "c", "d"}

	assert.Equal(t, []string{"b", "c", "a", "d"}, MoveItem(list, 0, 2))
	assert.Equal(t, []string{"d", "a", "b", "c"}, MoveItem(list, 3, 0))
	assert.Equal(t, list, MoveItem(list, 1, 1))
	assert.Equal(t, list, MoveItem(list, -1, 2))
	assert.Equal(t, list, MoveItem(list, 0, 4))
	assert.Equal(t, []string{"a", "b", "c", "d"}, list, "input must not be modified")
}

func TestExporter_CSV(t *testing.T) {
	e := NewExporter(exportDefinition(), exportRecords())

	var buf bytes.Buffer
	require.NoError(t, e.WriteCSV(&buf))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Name", "Email", "Status", "Applied", "Fee"}, rows[0])
	assert.Equal(t, []string{"Amy", "amy@example.com", "approved", "15-03-2024", "25.00"}, rows[1])
	assert.Equal(t, []string{"Ben", "-", "pending", "02-04-2024", "1200.50"}, rows[2])
	assert.Equal(t, []string{"Cy", "cy@example.com", "approved", "-", "-"}, rows[3])
}

func TestExporter_ReorderRoundTrip(t *testing.T) {
	e := NewExporter(exportDefinition(), exportRecords())
	e.Reorder(4, 0)
	e.ToggleField("email")
	e.Reorder(1, 3)

	want := make([]string, 0)
	for _, f := range e.Included() {
		want = append(want, f.Label)
	}

	var buf bytes.Buffer
	require.NoError(t, e.WriteCSV(&buf))
	rows := readCSV(t, buf.Bytes())

	assert.Equal(t, want, rows[0])
	assert.Equal(t, []string{"Fee", "Status", "Name", "Applied"}, rows[0])
	assert.Equal(t, []string{"25.00", "approved", "Amy", "15-03-2024"}, rows[1])
}

func TestExporter_SetFieldOrder(t *testing.T) {
	e := NewExporter(exportDefinition(), exportRecords())
	e.SetFieldOrder([]string{"status", "unknown", "name"})

	keys := make([]string, 0)
	for _, f := range e.Fields() {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"status", "name", "email", "created_at", "fee"}, keys)
}

func TestExporter_NoFieldsSelected(t *testing.T) {
	e := NewExporter(exportDefinition(), exportRecords())
	e.SelectNone()

	var csvBuf, pdfBuf bytes.Buffer
	assert.ErrorIs(t, e.WriteCSV(&csvBuf), ErrNoFieldsSelected)
	assert.ErrorIs(t, e.WritePDF(&pdfBuf), ErrNoFieldsSelected)
	assert.Zero(t, csvBuf.Len(), "no CSV bytes may be written")
	assert.Zero(t, pdfBuf.Len(), "no PDF bytes may be written")

	e.SelectAll()
	assert.Len(t, e.Included(), 5)
}

func TestExporter_ToggleField(t *testing.T) {
	e := NewExporter(exportDefinition(), exportRecords())

	e.ToggleField("email")
	assert.False(t, e.IsIncluded("email"))
	e.ToggleField("email")
	assert.True(t, e.IsIncluded("email"))

	e.ToggleField("missing")
	assert.False(t, e.IsIncluded("missing"))
	assert.Len(t, e.Included(), 5)
}

func TestExporter_IndependentFilters(t *testing.T) {
	e := NewExporter(exportDefinition(), exportRecords())
	e.SetStatusFilter("Approved")
	assert.Len(t, e.Filtered(), 2)

	e.SetStatusFilter("all")
	require.NoError(t, e.SetDateRange(DateRange{
		Start: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	}))
	filtered := e.Filtered()
	require.Len(t, filtered, 1)
	assert.Equal(t, "Ben", filtered[0]["name"])

	err := e.SetDateRange(DateRange{
		Start: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestExporter_Preview(t *testing.T) {
	records := make([]Record, 0, 12)
	for i := 1; i <= 12; i++ {
		records = append(records, Record{
			"id":    i,
			"name":  fmt.Sprintf("Applicant %d %s", i, strings.Repeat("x", 60)),
			"email": fmt.Sprintf("a%d@example.com", i),
		})
	}
	e := NewExporter(exportDefinition(), records)

	p := e.Preview()
	assert.Equal(t, 12, p.Total)
	assert.Len(t, p.Rows, DefaultPreviewRows)
	assert.True(t, strings.HasSuffix(p.Rows[0][0], "…"))
	assert.LessOrEqual(t, len([]rune(p.Rows[0][0])), MaxPreviewCellWidth)

	require.NoError(t, e.SetPreviewRows(10))
	assert.Len(t, e.Preview().Rows, 10)
	assert.ErrorIs(t, e.SetPreviewRows(7), ErrInvalidPageSize)

	e.SelectNone()
	assert.Empty(t, e.Preview().Headers)
}

func TestExporter_PDF(t *testing.T) {
	e := NewExporter(exportDefinition(), exportRecords())

	var buf bytes.Buffer
	require.NoError(t, e.WritePDF(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "/MediaBox [0 0 595.28 841.89]", "five columns render portrait")
	assert.Equal(t, "applicants_export.pdf", e.Filename(FormatPDF))
	assert.Equal(t, "applicants_export.csv", e.Filename(FormatCSV))
}

func TestExporter_PDFLandscapeAndPaging(t *testing.T) {
	def := exportDefinition()
	for i := 0; i < 3; i++ {
		def.ExportFields = append(def.ExportFields, ExportField{Label: fmt.Sprintf("Extra %d", i), Key: fmt.Sprintf("extra_%d", i)})
	}
	records := make([]Record, 0, 120)
	for i := 1; i <= 120; i++ {
		records = append(records, Record{"id": i, "name": fmt.Sprintf("Applicant %d", i)})
	}
	e := NewExporter(def, records)

	var buf bytes.Buffer
	require.NoError(t, e.WritePDF(&buf))
	out := buf.String()
	assert.Contains(t, out, "/MediaBox [0 0 841.89 595.28]", "more than six columns render landscape")
	assert.NotContains(t, out, "/Count 1\n", "120 rows need more than one page")
}

func TestExporter_WriteUnknownFormat(t *testing.T) {
	e := NewExporter(exportDefinition(), exportRecords())
	var buf bytes.Buffer
	err := e.Write(&buf, ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, "REQ001", MapError(err).Code)
}
