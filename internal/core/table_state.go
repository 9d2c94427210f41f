package core

// table_state.go derives the visible page of a grid from a record set and the
// user's search, status, sort, page and selection state.
//
// Every derived value is recomputed from current state on demand:
//
//	filtered = records | date range | custom predicate | search | status
//	sorted   = applySortMode(filtered)
//	paged    = sorted[(page-1)*size : page*size]   (all rows when size == AllPages)
//
// The stored page is clamped to [1, totalPages] after every mutation, and
// totalPages is never below 1 so an empty result still has page 1.
//
// A Controller is not safe for concurrent use; ViewSession serializes access.

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"
)

// ControllerOptions configures a Controller for one grid.
type ControllerOptions struct {
	// SearchFields are the fields free-text search inspects. Empty means every
	// field of the record.
	SearchFields []string
	// StatusField is compared by the status filter. Empty disables it.
	StatusField string
	// TitleField is the sort key for the asc/desc modes when no column sort is set.
	TitleField string
	// PageSize is the initial page size; 0 means DefaultPageSize.
	PageSize int
	// Now is the clock for the last_month and last_7_days windows.
	Now func() time.Time
}

// TableState is the derived view handed to renderers.
type TableState struct {
	Paged           []Record  `json:"paged"`
	TotalItems      int       `json:"total_items"`
	TotalPages      int       `json:"total_pages"`
	Page            int       `json:"page"`
	PageSize        int       `json:"page_size"`
	SortMode        SortMode  `json:"sort_mode"`
	Sort            SortSpec  `json:"sort"`
	Search          string    `json:"search"`
	Status          string    `json:"status"`
	DateRange       DateRange `json:"date_range"`
	SelectedIDs     []string  `json:"selected_ids"`
	AllPageSelected bool      `json:"all_page_selected"`
}

// Controller owns the interactive state of one grid instance.
type Controller struct {
	opts ControllerOptions

	records   []Record
	search    string
	status    string
	mode      SortMode
	sort      SortSpec
	page      int
	pageSize  int
	dateRange DateRange
	predicate Predicate
	selection *selectionSet

	onSelectionChange func(ids []string)
	onRefresh         func()
}

// NewController creates a Controller over an initial record set.
func NewController(records []Record, opts ControllerOptions) *Controller {
	if opts.PageSize == 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Controller{
		opts:      opts,
		records:   CleanRecords(records),
		page:      1,
		pageSize:  opts.PageSize,
		sort:      SortSpec{Direction: DirAsc},
		selection: newSelectionSet(),
	}
	return c
}

// OnSelectionChange registers the callback fired whenever the selection changes.
func (c *Controller) OnSelectionChange(fn func(ids []string)) {
	c.onSelectionChange = fn
}

// OnRefresh registers the callback fired by Refresh. The host re-fetches records.
func (c *Controller) OnRefresh(fn func()) {
	c.onRefresh = fn
}

// Records returns the current input record set.
func (c *Controller) Records() []Record {
	return c.records
}

// SetRecords swaps in a new record set. When it holds fewer records than the
// selection, selected ids that no longer exist are dropped.
func (c *Controller) SetRecords(records []Record) {
	c.records = CleanRecords(records)

	if len(c.records) < c.selection.len() {
		present := make(map[string]bool, len(c.records))
		for _, r := range c.records {
			present[RecordID(r)] = true
		}
		if c.selection.retain(func(id string) bool { return present[id] }) {
			c.selectionChanged()
		}
	}
	c.clampPage()
}

// SetSearchTerm replaces the free-text filter. Any change moves to page 1.
func (c *Controller) SetSearchTerm(text string) {
	if text == c.search {
		return
	}
	c.search = text
	c.page = 1
}

// SetStatusFilter replaces the status equality filter ("" or "all" disables it).
func (c *Controller) SetStatusFilter(value string) {
	if strings.EqualFold(value, "all") {
		value = ""
	}
	if value == c.status {
		return
	}
	c.status = value
	c.page = 1
}

// SetSortBy selects a named sort mode.
func (c *Controller) SetSortBy(mode SortMode) error {
	if !ValidSortMode(mode) {
		return ErrInvalidSortMode
	}
	c.mode = mode
	switch mode {
	case SortAsc:
		c.sort.Direction = DirAsc
	case SortDesc:
		c.sort.Direction = DirDesc
	}
	c.clampPage()
	return nil
}

// HandleSort sorts by a column: repeated calls on the same key toggle the
// direction, a new key starts ascending.
func (c *Controller) HandleSort(key string) {
	if key == c.sort.Key && (c.mode == SortAsc || c.mode == SortDesc) {
		if c.sort.Direction == DirAsc {
			c.sort.Direction = DirDesc
		} else {
			c.sort.Direction = DirAsc
		}
	} else {
		c.sort = SortSpec{Key: key, Direction: DirAsc}
	}
	c.mode = SortMode(c.sort.Direction)
	c.clampPage()
}

// SetPageSize changes the page size. AllPages disables pagination.
func (c *Controller) SetPageSize(n int) error {
	if n != AllPages && n < 1 {
		return ErrInvalidPageSize
	}
	c.pageSize = n
	c.page = 1
	return nil
}

// HandlePage moves to page n, clamped into [1, totalPages].
func (c *Controller) HandlePage(n int) {
	c.page = n
	c.clampPage()
}

// SetDateRange sets the date window applied ahead of every other filter.
func (c *Controller) SetDateRange(r DateRange) error {
	if err := r.Validate(); err != nil {
		return err
	}
	c.dateRange = r
	c.clampPage()
	return nil
}

// SetCustomPredicate installs an extra filter ANDed with the built-in ones.
// nil removes it.
func (c *Controller) SetCustomPredicate(fn Predicate) {
	c.predicate = fn
	c.clampPage()
}

// ToggleSelect flips the selection of one record id.
func (c *Controller) ToggleSelect(id string) {
	if id == "" {
		return
	}
	if !c.selection.remove(id) {
		c.selection.add(id)
	}
	c.selectionChanged()
}

// SelectAll toggles the selection of the visible page: when every row on it is
// selected they are deselected, otherwise they are all added.
func (c *Controller) SelectAll() {
	ids := recordIDs(c.State().Paged)
	if len(ids) == 0 {
		return
	}

	changed := false
	if c.selection.hasAll(ids) {
		for _, id := range ids {
			changed = c.selection.remove(id) || changed
		}
	} else {
		for _, id := range ids {
			changed = c.selection.add(id) || changed
		}
	}
	if changed {
		c.selectionChanged()
	}
}

// SelectAllFiltered adds every record that passes the current filters.
func (c *Controller) SelectAllFiltered() {
	changed := false
	for _, id := range recordIDs(c.sorted()) {
		changed = c.selection.add(id) || changed
	}
	if changed {
		c.selectionChanged()
	}
}

// ClearSelection empties the selection.
func (c *Controller) ClearSelection() {
	if c.selection.clear() {
		c.selectionChanged()
	}
}

// Selected returns the selected ids in selection order.
func (c *Controller) Selected() []string {
	return c.selection.list()
}

// SelectedRecords returns the records whose ids are selected, in input order.
func (c *Controller) SelectedRecords() []Record {
	out := make([]Record, 0, c.selection.len())
	for _, r := range c.records {
		if c.selection.has(RecordID(r)) {
			out = append(out, r)
		}
	}
	return out
}

// Refresh resets search, filters, sort, pagination and selection, then
// notifies the host so it can re-fetch the records.
func (c *Controller) Refresh() {
	c.search = ""
	c.status = ""
	c.mode = SortNone
	c.sort = SortSpec{Direction: DirAsc}
	c.page = 1
	c.pageSize = c.opts.PageSize
	c.dateRange = DateRange{}
	if c.selection.clear() {
		c.selectionChanged()
	}
	if c.onRefresh != nil {
		c.onRefresh()
	}
}

// ActiveFilters returns the built-in filter state.
func (c *Controller) ActiveFilters() ActiveFilters {
	return ActiveFilters{
		Search:    c.search,
		Status:    c.status,
		SortMode:  c.mode,
		DateRange: c.dateRange,
	}
}

// Filtered returns the filtered and sorted records (every page).
func (c *Controller) Filtered() []Record {
	return c.sorted()
}

// State derives the current page.
func (c *Controller) State() TableState {
	sorted := c.sorted()
	total := len(sorted)
	totalPages := pageCount(total, c.pageSize)
	page := clamp(c.page, 1, totalPages)

	paged := sorted
	if c.pageSize != AllPages {
		start := min((page-1)*c.pageSize, total)
		end := min(start+c.pageSize, total)
		paged = sorted[start:end]
	}

	ids := recordIDs(paged)
	return TableState{
		Paged:           paged,
		TotalItems:      total,
		TotalPages:      totalPages,
		Page:            page,
		PageSize:        c.pageSize,
		SortMode:        c.mode,
		Sort:            c.sort,
		Search:          c.search,
		Status:          c.status,
		DateRange:       c.dateRange,
		SelectedIDs:     c.selection.list(),
		AllPageSelected: len(ids) > 0 && c.selection.hasAll(ids),
	}
}

func (c *Controller) selectionChanged() {
	if c.onSelectionChange != nil {
		c.onSelectionChange(c.selection.list())
	}
}

func (c *Controller) clampPage() {
	c.page = clamp(c.page, 1, pageCount(len(c.sorted()), c.pageSize))
}

// pageCount never returns less than 1 and never divides by AllPages.
func pageCount(total, size int) int {
	if size == AllPages || size <= 0 || total == 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(size)))
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// sorted runs the whole filter and sort pipeline. The input slice is never
// reordered.
func (c *Controller) sorted() []Record {
	active := c.ActiveFilters()
	query := strings.ToLower(strings.TrimSpace(c.search))

	filtered := make([]Record, 0, len(c.records))
	for _, r := range c.records {
		if !c.dateRange.IsZero() && !matchesDateRange(r, c.dateRange) {
			continue
		}
		if c.predicate != nil && !c.predicate(r, active) {
			continue
		}
		if query != "" && !c.matchesSearch(r, query) {
			continue
		}
		if c.status != "" && !matchesStatus(r, c.opts.StatusField, c.status) {
			continue
		}
		filtered = append(filtered, r)
	}
	return c.applySortMode(filtered)
}

func (c *Controller) matchesSearch(r Record, query string) bool {
	if len(c.opts.SearchFields) == 0 {
		for _, v := range r {
			if strings.Contains(strings.ToLower(Stringify(v)), query) {
				return true
			}
		}
		return false
	}
	for _, field := range c.opts.SearchFields {
		if strings.Contains(strings.ToLower(Stringify(FieldValue(r, field))), query) {
			return true
		}
	}
	return false
}

// matchesStatus compares normalized status text case-insensitively, so a
// filter of "n/a" also matches blank and "Unknown" values.
func matchesStatus(r Record, field, want string) bool {
	if field == "" {
		return true
	}
	return strings.EqualFold(NormalizeStatus(FieldValue(r, field)), NormalizeStatus(want))
}

// matchesDateRange tests the first populated date field against r.
// Records without a usable date are excluded by an active range.
func matchesDateRange(rec Record, r DateRange) bool {
	t, ok := RecordTime(rec)
	if !ok {
		return false
	}
	return r.Contains(t)
}

func (c *Controller) applySortMode(records []Record) []Record {
	switch c.mode {
	case SortRecent:
		sortRecent(records)
	case SortAsc, SortDesc:
		key := c.sort.Key
		if key == "" {
			key = c.opts.TitleField
		}
		if key == "" {
			return records
		}
		desc := c.mode == SortDesc
		slices.SortStableFunc(records, func(a, b Record) int {
			n := compareValues(key, FieldValue(a, key), FieldValue(b, key))
			if desc {
				return -n
			}
			return n
		})
	case SortLastMonth:
		records = withinWindow(records, c.opts.Now().AddDate(0, -1, 0))
		sortRecent(records)
	case SortLast7Days:
		records = withinWindow(records, c.opts.Now().AddDate(0, 0, -7))
		sortRecent(records)
	}
	return records
}

// sortRecent orders by best-guess timestamp, newest first, undated last.
func sortRecent(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		ta, okA := RecordTime(a)
		tb, okB := RecordTime(b)
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		}
		return tb.Compare(ta)
	})
}

func withinWindow(records []Record, since time.Time) []Record {
	out := records[:0]
	for _, r := range records {
		if t, ok := RecordTime(r); ok && !t.Before(since) {
			out = append(out, r)
		}
	}
	return out
}

// compareValues orders two cell values of the same field. Missing values are
// smallest; dates, then numbers, then case-insensitive text are compared.
func compareValues(key string, a, b any) int {
	emptyA, emptyB := isEmptyValue(a), isEmptyValue(b)
	switch {
	case emptyA && emptyB:
		return 0
	case emptyA:
		return -1
	case emptyB:
		return 1
	}

	if IsDateField(key) {
		ta, okA := ValueTime(a)
		tb, okB := ValueTime(b)
		if okA && okB {
			return ta.Compare(tb)
		}
	}

	lenient := IsCurrencyField(key, "")
	na, okA := valueNumber(a, lenient)
	nb, okB := valueNumber(b, lenient)
	if okA && okB {
		return cmp.Compare(na, nb)
	}

	return strings.Compare(strings.ToLower(Stringify(a)), strings.ToLower(Stringify(b)))
}

func recordIDs(records []Record) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if id := RecordID(r); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// selectionSet is an insertion-ordered set of record ids.
type selectionSet struct {
	ids   []string
	index map[string]struct{}
}

func newSelectionSet() *selectionSet {
	return &selectionSet{index: make(map[string]struct{})}
}

func (s *selectionSet) len() int { return len(s.ids) }

func (s *selectionSet) has(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *selectionSet) hasAll(ids []string) bool {
	for _, id := range ids {
		if !s.has(id) {
			return false
		}
	}
	return true
}

func (s *selectionSet) add(id string) bool {
	if s.has(id) {
		return false
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

func (s *selectionSet) remove(id string) bool {
	if !s.has(id) {
		return false
	}
	delete(s.index, id)
	s.ids = slices.DeleteFunc(s.ids, func(x string) bool { return x == id })
	return true
}

// retain keeps ids for which keep is true and reports whether any were dropped.
func (s *selectionSet) retain(keep func(id string) bool) bool {
	before := len(s.ids)
	s.ids = slices.DeleteFunc(s.ids, func(id string) bool {
		if keep(id) {
			return false
		}
		delete(s.index, id)
		return true
	})
	return len(s.ids) != before
}

func (s *selectionSet) clear() bool {
	if len(s.ids) == 0 {
		return false
	}
	s.ids = nil
	s.index = make(map[string]struct{})
	return true
}

func (s *selectionSet) list() []string {
	return append([]string{}, s.ids...)
}
