package core

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CellFormat records which formatting rule produced a cell's text.
type CellFormat string

const (
	CellRaw      CellFormat = "raw"
	CellEmpty    CellFormat = "empty"
	CellDate     CellFormat = "date"
	CellCurrency CellFormat = "currency"
	CellNumber   CellFormat = "number"
)

// EmptyCell is the display text for missing values.
const EmptyCell = "-"

// Display layouts for localized dates.
const (
	displayDateTimeLayout = "Jan 2, 2006, 3:04 PM"
	displayDateLayout     = "Jan 2, 2006"
	exportDateLayout      = "02-01-2006"
)

// CurrencySymbol prefixes currency-formatted values.
var CurrencySymbol = "$"

// displayPrinter groups digits the way the admin console's locale does.
var displayPrinter = message.NewPrinter(language.English)

// Cell is a formatted value ready for display.
type Cell struct {
	Text   string     `json:"text"`
	Format CellFormat `json:"format"`
}

// exactDateFields are field names that are dates regardless of other rules.
var exactDateFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"date":       true,
	"timestamp":  true,
}

// currencyKeywords mark a field as money when found in its accessor or header.
var currencyKeywords = []string{
	"price", "cost", "amount", "total", "value", "revenue", "fee", "tax",
	"balance", "discount", "subtotal", "refund", "payout", "budget", "salary",
	"charge",
}

// IsDateField reports whether an accessor names a date-like field.
func IsDateField(accessor string) bool {
	name := strings.ToLower(strings.TrimSpace(accessor))
	if name == "" {
		return false
	}
	if exactDateFields[name] || strings.HasSuffix(name, "_date") {
		return true
	}
	return strings.Contains(name, "date") || strings.Contains(name, "time")
}

// IsCurrencyField reports whether the accessor or header mentions money.
func IsCurrencyField(accessor, header string) bool {
	names := strings.ToLower(accessor + " " + header)
	for _, kw := range currencyKeywords {
		if strings.Contains(names, kw) {
			return true
		}
	}
	return false
}

// FormatCell renders one value for display. Rules apply in order: date,
// currency, grouped number, raw. Currency wins over generic grouping, so a
// field named "total_price" is always money.
func FormatCell(col Column, v any) Cell {
	if isEmptyValue(v) {
		return Cell{Text: EmptyCell, Format: CellEmpty}
	}
	if b, ok := v.(bool); ok {
		if b {
			return Cell{Text: "Yes", Format: CellRaw}
		}
		return Cell{Text: "No", Format: CellRaw}
	}

	raw := Stringify(v)

	if IsDateField(col.Accessor) {
		if t, hasClock, ok := valueTimeDetail(v); ok {
			return Cell{Text: formatDisplayTime(t, hasClock), Format: CellDate}
		}
		return Cell{Text: raw, Format: CellRaw}
	}

	if IsCurrencyField(col.Accessor, col.Header) {
		if n, ok := valueNumber(v, true); ok {
			return Cell{Text: FormatCurrency(n), Format: CellCurrency}
		}
	}

	if n, ok := valueNumber(v, false); ok {
		fractional := strings.Contains(raw, ".")
		if math.Abs(n) >= 1000 || fractional {
			return Cell{Text: FormatGrouped(n, fractional), Format: CellNumber}
		}
	}

	return Cell{Text: raw, Format: CellRaw}
}

// FormatCurrency renders n with the currency symbol, digit grouping and two
// decimals ("$1,234.50", "-$20.00").
func FormatCurrency(n float64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return sign + CurrencySymbol + displayPrinter.Sprintf("%.2f", n)
}

// FormatGrouped renders n with digit grouping. fractional reports whether the
// source text carried a decimal point ("12.0"), which keeps two decimals.
func FormatGrouped(n float64, fractional bool) string {
	if fractional {
		return displayPrinter.Sprintf("%.2f", n)
	}
	return displayPrinter.Sprintf("%.0f", n)
}

func formatDisplayTime(t time.Time, hasClock bool) string {
	if hasClock {
		return t.Format(displayDateTimeLayout)
	}
	return t.Format(displayDateLayout)
}

// valueTimeDetail is ValueTime plus whether the value carried a clock.
func valueTimeDetail(v any) (time.Time, bool, bool) {
	if s, ok := v.(string); ok {
		return parseDateDetail(s)
	}
	t, ok := ValueTime(v)
	if !ok {
		return time.Time{}, false, false
	}
	h, m, sec := t.Clock()
	return t, h != 0 || m != 0 || sec != 0, true
}

// FormatExportDate normalizes a date value for export as DD-MM-YYYY.
// "DD/MM/YYYY[, time]" text keeps its digits; other parsable values are
// reformatted; anything else becomes "-".
func FormatExportDate(v any) string {
	if isEmptyValue(v) {
		return EmptyCell
	}
	if s, ok := v.(string); ok {
		if d, ok := DayFirstDate(s); ok {
			return d
		}
	}
	t, ok := ValueTime(v)
	if !ok {
		return EmptyCell
	}
	return t.Format(exportDateLayout)
}

// FormatExportValue normalizes a value for the CSV and PDF serializers.
func FormatExportValue(key string, v any) string {
	if isEmptyValue(v) {
		return EmptyCell
	}
	if IsDateField(key) {
		return FormatExportDate(v)
	}
	if b, ok := v.(bool); ok {
		if b {
			return "Yes"
		}
		return "No"
	}
	if IsCurrencyField(key, "") {
		if n, ok := valueNumber(v, true); ok {
			return strconv.FormatFloat(n, 'f', 2, 64)
		}
	}
	return Stringify(v)
}
