package core

import (
	"time"
)

// Record is one row of data: field name to value. Values may be strings,
// numbers, booleans, date-like strings, driver types (pgtype, time.Time) or
// nested maps and slices. The engine never mutates a Record.
type Record map[string]any

// ColumnKind selects how a column is dispatched by the formatter and classifier.
type ColumnKind string

const (
	KindPlain  ColumnKind = "plain"
	KindStatus ColumnKind = "status"
	KindImage  ColumnKind = "image"
	KindCustom ColumnKind = "custom"
)

// RenderFunc renders a custom cell. index is the row position within the page.
type RenderFunc func(rec Record, value any, index int) string

// Column describes how one field is extracted, labelled and rendered.
type Column struct {
	Accessor        string     `yaml:"accessor" json:"accessor"`
	Header          string     `yaml:"header" json:"header"`
	Kind            ColumnKind `yaml:"kind" json:"kind"`
	Sortable        bool       `yaml:"sortable" json:"sortable"`
	Priority        int        `yaml:"priority" json:"priority"` // 1 = always shown; higher values drop first on narrow layouts
	ClassName       string     `yaml:"class" json:"className,omitempty"`
	HeaderClassName string     `yaml:"header_class" json:"headerClassName,omitempty"`
	// Renderer names a registered RenderFunc for definitions loaded from YAML.
	Renderer        string     `yaml:"render" json:"-"`
	Render          RenderFunc `yaml:"-" json:"-"`
}

// Label returns the display header, falling back to the accessor.
func (c Column) Label() string {
	if c.Header != "" {
		return c.Header
	}
	return c.Accessor
}

// SortMode is the named sort policy. Exactly one is active at a time.
type SortMode string

const (
	SortNone      SortMode = ""
	SortRecent    SortMode = "recent"
	SortAsc       SortMode = "asc"
	SortDesc      SortMode = "desc"
	SortLastMonth SortMode = "last_month"
	SortLast7Days SortMode = "last_7_days"
)

// ValidSortMode reports whether m is a known sort mode.
func ValidSortMode(m SortMode) bool {
	switch m {
	case SortNone, SortRecent, SortAsc, SortDesc, SortLastMonth, SortLast7Days:
		return true
	}
	return false
}

// SortDirection is "asc" or "desc".
type SortDirection string

const (
	DirAsc  SortDirection = "asc"
	DirDesc SortDirection = "desc"
)

// SortSpec is the active column sort.
type SortSpec struct {
	Key       string        `json:"key"`
	Direction SortDirection `json:"direction"`
}

// AllPages is the page size that disables pagination.
const AllPages = -1

// DefaultPageSize is used when a grid definition does not set one.
const DefaultPageSize = 10

// DateRange is an inclusive date window. A zero bound is open.
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether t falls in the range. End is inclusive to the end of its day.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(startOfDay(r.Start)) {
		return false
	}
	if !r.End.IsZero() && !t.Before(startOfDay(r.End).AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// Validate rejects ranges whose start is after their end.
func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && startOfDay(r.Start).After(startOfDay(r.End)) {
		return ErrInvalidDateRange
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ActiveFilters is the built-in filter state handed to a custom predicate.
type ActiveFilters struct {
	Search    string
	Status    string
	SortMode  SortMode
	DateRange DateRange
}

// Predicate is a caller-supplied record filter. It composes with the
// built-in predicates (all are ANDed).
type Predicate func(rec Record, active ActiveFilters) bool

// LayoutMode is the rendering density derived from viewport width.
type LayoutMode string

const (
	LayoutMobile  LayoutMode = "mobile"
	LayoutTablet  LayoutMode = "tablet"
	LayoutDesktop LayoutMode = "desktop"
)

// Breakpoints in CSS pixels.
const (
	MobileMaxWidth = 768
	TabletMaxWidth = 1024
)

// LayoutFor maps a viewport width to a layout. Non-positive widths are
// treated as unknown and render as desktop.
func LayoutFor(width int) LayoutMode {
	switch {
	case width <= 0:
		return LayoutDesktop
	case width < MobileMaxWidth:
		return LayoutMobile
	case width < TabletMaxWidth:
		return LayoutTablet
	default:
		return LayoutDesktop
	}
}

// ExportField is one entry of the export field order.
type ExportField struct {
	Label string `yaml:"label" json:"label"`
	Key   string `yaml:"key" json:"key"`
	Icon  string `yaml:"icon" json:"icon,omitempty"`
}

// ExportFormat is the artifact type produced by the export pipeline.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)
