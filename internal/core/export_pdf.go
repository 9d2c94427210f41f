package core

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// PDF table theme.
var (
	pdfHeaderFill = [3]int{240, 93, 35}
	pdfHeaderText = [3]int{255, 255, 255}
	pdfStripeFill = [3]int{248, 244, 242}
	pdfBodyText   = [3]int{33, 37, 41}
)

const (
	pdfMargin          = 10.0
	pdfTitleSize       = 14.0
	pdfBodySize        = 8.0
	pdfRowHeight       = 6.0
	pdfFooterHeight    = 10.0
	pdfLandscapeAfter  = 6 // more columns than this switch to landscape
	pdfEllipsis        = "..."
	pdfEmptyTableLabel = "No records match the selected filters"
)

// WritePDF renders the export as a titled, striped table. The header row is
// repeated on every page. Nothing is written when no field is included.
func (e *Exporter) WritePDF(w io.Writer) error {
	headers, rows, err := e.Table()
	if err != nil {
		return err
	}

	orientation := "P"
	if len(headers) > pdfLandscapeAfter {
		orientation = "L"
	}

	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(e.title, true)
	pdf.SetCreator("admingrid", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfFooterHeight)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pageW, pageH := pdf.GetPageSize()
	colW := (pageW - 2*pdfMargin) / float64(len(headers))
	bottom := pageH - pdfMargin - pdfFooterHeight

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", pdfBodySize)
		pdf.SetFillColor(pdfHeaderFill[0], pdfHeaderFill[1], pdfHeaderFill[2])
		pdf.SetTextColor(pdfHeaderText[0], pdfHeaderText[1], pdfHeaderText[2])
		for _, h := range headers {
			pdf.CellFormat(colW, pdfRowHeight+1, fitText(pdf, tr(h), colW), "", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", pdfBodySize)
		pdf.SetTextColor(pdfBodyText[0], pdfBodyText[1], pdfBodyText[2])
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", pdfTitleSize)
	pdf.SetTextColor(pdfBodyText[0], pdfBodyText[1], pdfBodyText[2])
	pdf.CellFormat(0, 10, tr(e.title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", pdfBodySize)
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("%d records, generated %s", len(rows), time.Now().Format(displayDateTimeLayout))), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	drawHeader()

	if len(rows) == 0 {
		pdf.CellFormat(colW*float64(len(headers)), pdfRowHeight, pdfEmptyTableLabel, "", 1, "C", false, 0, "")
	}

	for i, row := range rows {
		if pdf.GetY()+pdfRowHeight > bottom {
			pdf.AddPage()
			drawHeader()
		}
		stripe := i%2 == 1
		if stripe {
			pdf.SetFillColor(pdfStripeFill[0], pdfStripeFill[1], pdfStripeFill[2])
		}
		for _, cell := range row {
			pdf.CellFormat(colW, pdfRowHeight, fitText(pdf, tr(cell), colW), "", 0, "L", stripe, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export failed: render pdf: %w", err)
	}
	return nil
}

// fitText shortens s until it fits a cell of width w, marking the cut.
func fitText(pdf *fpdf.Fpdf, s string, w float64) string {
	avail := w - 2*pdf.GetCellMargin()
	if pdf.GetStringWidth(s) <= avail {
		return s
	}
	b := []byte(s)
	for len(b) > 0 && pdf.GetStringWidth(string(b)+pdfEllipsis) > avail {
		b = b[:len(b)-1]
	}
	return string(b) + pdfEllipsis
}
