package core

import (
	"fmt"
	"slices"
	"testing"
	"time"
)

func numberedRecords(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{"id": i + 1, "name": fmt.Sprintf("member %02d", i+1)}
	}
	return out
}

func pagedIDs(st TableState) []string {
	return recordIDs(st.Paged)
}

func TestController_SearchAndRecentSort(t *testing.T) {
	records := []Record{
		{"id": 1, "name": "Amy", "created_at": "2024-01-01"},
		{"id": 2, "name": "Zed", "created_at": "2024-06-01"},
	}
	c := NewController(records, ControllerOptions{SearchFields: []string{"name"}})

	if err := c.SetSortBy(SortRecent); err != nil {
		t.Fatalf("SetSortBy(recent) error = %v", err)
	}
	st := c.State()
	if got := []string{st.Paged[0]["name"].(string), st.Paged[1]["name"].(string)}; !slices.Equal(got, []string{"Zed", "Amy"}) {
		t.Errorf("recent order = %v, want [Zed Amy]", got)
	}

	c.SetSearchTerm("amy")
	st = c.State()
	if st.TotalItems != 1 {
		t.Errorf("TotalItems = %d, want 1", st.TotalItems)
	}
	if len(st.Paged) != 1 || st.Paged[0]["name"] != "Amy" {
		t.Errorf("Paged = %v, want [Amy]", st.Paged)
	}
}

func TestController_RecentSortMissingTimestampsLast(t *testing.T) {
	records := []Record{
		{"id": 1},
		{"id": 2, "updated_at": "2023-05-01"},
		{"id": 3, "created_at": "2024-05-01"},
	}
	c := NewController(records, ControllerOptions{})
	_ = c.SetSortBy(SortRecent)

	if got := pagedIDs(c.State()); !slices.Equal(got, []string{"3", "2", "1"}) {
		t.Errorf("recent order = %v, want [3 2 1]", got)
	}
}

func TestController_Pagination(t *testing.T) {
	tests := []struct {
		name         string
		total        int
		pageSize     int
		page         int
		wantPage     int
		wantPages    int
		wantPagedLen int
		wantFirstID  string
	}{
		{name: "first page", total: 25, pageSize: 10, page: 1, wantPage: 1, wantPages: 3, wantPagedLen: 10, wantFirstID: "1"},
		{name: "last partial page", total: 25, pageSize: 10, page: 3, wantPage: 3, wantPages: 3, wantPagedLen: 5, wantFirstID: "21"},
		{name: "page clamped high", total: 25, pageSize: 10, page: 9, wantPage: 3, wantPages: 3, wantPagedLen: 5, wantFirstID: "21"},
		{name: "page clamped low", total: 25, pageSize: 10, page: -4, wantPage: 1, wantPages: 3, wantPagedLen: 10, wantFirstID: "1"},
		{name: "all pages", total: 25, pageSize: AllPages, page: 1, wantPage: 1, wantPages: 1, wantPagedLen: 25, wantFirstID: "1"},
		{name: "all pages with no records", total: 0, pageSize: AllPages, page: 1, wantPage: 1, wantPages: 1, wantPagedLen: 0},
		{name: "no records", total: 0, pageSize: 10, page: 2, wantPage: 1, wantPages: 1, wantPagedLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(numberedRecords(tt.total), ControllerOptions{})
			if err := c.SetPageSize(tt.pageSize); err != nil {
				t.Fatalf("SetPageSize(%d) error = %v", tt.pageSize, err)
			}
			c.HandlePage(tt.page)

			st := c.State()
			if st.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", st.Page, tt.wantPage)
			}
			if st.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", st.TotalPages, tt.wantPages)
			}
			if len(st.Paged) != tt.wantPagedLen {
				t.Errorf("len(Paged) = %d, want %d", len(st.Paged), tt.wantPagedLen)
			}
			if tt.wantFirstID != "" && RecordID(st.Paged[0]) != tt.wantFirstID {
				t.Errorf("first paged id = %s, want %s", RecordID(st.Paged[0]), tt.wantFirstID)
			}
		})
	}
}

func TestController_PagedIsContiguousSliceOfFiltered(t *testing.T) {
	c := NewController(numberedRecords(23), ControllerOptions{})
	_ = c.SetPageSize(5)

	var all []string
	for page := 1; page <= c.State().TotalPages; page++ {
		c.HandlePage(page)
		st := c.State()
		remaining := st.TotalItems - (page-1)*5
		if want := min(5, remaining); len(st.Paged) != want {
			t.Errorf("page %d len = %d, want %d", page, len(st.Paged), want)
		}
		all = append(all, pagedIDs(st)...)
	}
	if want := recordIDs(c.Filtered()); !slices.Equal(all, want) {
		t.Errorf("concatenated pages = %v, want %v", all, want)
	}
}

func TestController_SetPageSizeRejectsInvalid(t *testing.T) {
	c := NewController(nil, ControllerOptions{})
	for _, n := range []int{0, -2} {
		if err := c.SetPageSize(n); err != ErrInvalidPageSize {
			t.Errorf("SetPageSize(%d) error = %v, want ErrInvalidPageSize", n, err)
		}
	}
}

func TestController_SearchResetsPage(t *testing.T) {
	c := NewController(numberedRecords(30), ControllerOptions{SearchFields: []string{"name"}})
	c.HandlePage(3)
	if c.State().Page != 3 {
		t.Fatalf("Page = %d, want 3", c.State().Page)
	}

	c.SetSearchTerm("member")
	if got := c.State().Page; got != 1 {
		t.Errorf("Page after search change = %d, want 1", got)
	}

	c.HandlePage(2)
	c.SetSearchTerm("member")
	if got := c.State().Page; got != 2 {
		t.Errorf("Page after unchanged search = %d, want 2", got)
	}
}

func TestController_FilteredCountMatchesPredicates(t *testing.T) {
	records := []Record{
		{"id": 1, "name": "Amy", "status": "Active", "created_at": "2024-01-10"},
		{"id": 2, "name": "Ben", "status": "inactive", "created_at": "2024-02-10"},
		{"id": 3, "name": "Amos", "status": "active", "created_at": "2024-03-10"},
		{"id": 4, "name": "Cara", "status": "", "created_at": "2024-03-11"},
		nil,
	}
	c := NewController(records, ControllerOptions{SearchFields: []string{"name"}, StatusField: "status"})

	c.SetSearchTerm("AM")
	c.SetStatusFilter("active")
	c.SetCustomPredicate(func(r Record, active ActiveFilters) bool {
		if active.Status != "active" {
			t.Errorf("ActiveFilters.Status = %q, want active", active.Status)
		}
		return RecordID(r) != "3"
	})

	st := c.State()
	if st.TotalItems != 1 || RecordID(st.Paged[0]) != "1" {
		t.Errorf("filtered ids = %v, want [1]", pagedIDs(st))
	}

	c.SetCustomPredicate(nil)
	c.SetSearchTerm("")
	c.SetStatusFilter("n/a")
	if got := pagedIDs(c.State()); !slices.Equal(got, []string{"4"}) {
		t.Errorf("n/a status filter = %v, want [4]", got)
	}

	c.SetStatusFilter("all")
	if got := c.State().TotalItems; got != 4 {
		t.Errorf("TotalItems with status=all = %d, want 4 (nil record dropped)", got)
	}
}

func TestController_DateRange(t *testing.T) {
	records := []Record{
		{"id": 1, "created_at": "2024-01-10"},
		{"id": 2, "created_at": "2024-02-10T23:59:00Z"},
		{"id": 3, "created_at": "2024-03-10"},
		{"id": 4},
	}
	c := NewController(records, ControllerOptions{})

	r := DateRange{
		Start: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := c.SetDateRange(r); err != nil {
		t.Fatalf("SetDateRange() error = %v", err)
	}
	if got := pagedIDs(c.State()); !slices.Equal(got, []string{"2"}) {
		t.Errorf("date range ids = %v, want [2] (end is inclusive)", got)
	}

	bad := DateRange{Start: r.End, End: r.Start}
	if err := c.SetDateRange(bad); err != ErrInvalidDateRange {
		t.Errorf("SetDateRange(reversed) error = %v, want ErrInvalidDateRange", err)
	}
	if got := c.State().DateRange; got != r {
		t.Errorf("DateRange after rejected update = %v, want unchanged", got)
	}
}

func TestController_HandleSort(t *testing.T) {
	records := []Record{
		{"id": 1, "name": "bob", "price": "$20"},
		{"id": 2, "name": "Amy", "price": "$5"},
		{"id": 3, "price": "$100"},
		{"id": 4, "name": "carl"},
	}
	c := NewController(records, ControllerOptions{})

	c.HandleSort("name")
	if got := pagedIDs(c.State()); !slices.Equal(got, []string{"3", "2", "1", "4"}) {
		t.Errorf("name asc = %v, want [3 2 1 4] (missing smallest, case-insensitive)", got)
	}
	if st := c.State(); st.Sort != (SortSpec{Key: "name", Direction: DirAsc}) || st.SortMode != SortAsc {
		t.Errorf("sort = %+v mode %q, want name asc", st.Sort, st.SortMode)
	}

	c.HandleSort("name")
	if got := pagedIDs(c.State()); !slices.Equal(got, []string{"4", "1", "2", "3"}) {
		t.Errorf("name desc = %v, want [4 1 2 3]", got)
	}

	c.HandleSort("price")
	if got := pagedIDs(c.State()); !slices.Equal(got, []string{"4", "2", "1", "3"}) {
		t.Errorf("price asc = %v, want [4 2 1 3] (numeric, not lexical)", got)
	}
}

func TestController_SortIsStable(t *testing.T) {
	records := []Record{
		{"id": 1, "group": "b"},
		{"id": 2, "group": "a"},
		{"id": 3, "group": "b"},
		{"id": 4, "group": "a"},
	}
	c := NewController(records, ControllerOptions{})
	c.HandleSort("group")

	if got := pagedIDs(c.State()); !slices.Equal(got, []string{"2", "4", "1", "3"}) {
		t.Errorf("stable sort = %v, want [2 4 1 3]", got)
	}
	if RecordID(records[0]) != "1" {
		t.Error("input records were reordered")
	}
}

func TestController_AscDescFallBackToTitleField(t *testing.T) {
	records := []Record{
		{"id": 1, "title": "Gala"},
		{"id": 2, "title": "Annual Meeting"},
	}
	c := NewController(records, ControllerOptions{TitleField: "title"})

	_ = c.SetSortBy(SortDesc)
	if got := pagedIDs(c.State()); !slices.Equal(got, []string{"1", "2"}) {
		t.Errorf("desc = %v, want [1 2]", got)
	}
	_ = c.SetSortBy(SortAsc)
	if got := pagedIDs(c.State()); !slices.Equal(got, []string{"2", "1"}) {
		t.Errorf("asc = %v, want [2 1]", got)
	}
	if err := c.SetSortBy("sideways"); err != ErrInvalidSortMode {
		t.Errorf("SetSortBy(sideways) error = %v, want ErrInvalidSortMode", err)
	}
}

func TestController_TimeWindowModes(t *testing.T) {
	now := time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)
	records := []Record{
		{"id": 1, "created_at": "2024-06-28"},
		{"id": 2, "created_at": "2024-06-10"},
		{"id": 3, "created_at": "2024-04-01"},
		{"id": 4},
	}
	c := NewController(records, ControllerOptions{Now: func() time.Time { return now }})

	_ = c.SetSortBy(SortLast7Days)
	if got := pagedIDs(c.State()); !slices.Equal(got, []string{"1"}) {
		t.Errorf("last_7_days = %v, want [1]", got)
	}

	_ = c.SetSortBy(SortLastMonth)
	if got := pagedIDs(c.State()); !slices.Equal(got, []string{"1", "2"}) {
		t.Errorf("last_month = %v, want [1 2]", got)
	}
}

func TestController_SelectAllIsPageScopedToggle(t *testing.T) {
	c := NewController(numberedRecords(15), ControllerOptions{})
	var events [][]string
	c.OnSelectionChange(func(ids []string) { events = append(events, ids) })

	c.ToggleSelect("12")
	before := c.Selected()

	c.SelectAll()
	st := c.State()
	if len(st.SelectedIDs) != 11 || !st.AllPageSelected {
		t.Errorf("after SelectAll: selected %d, all page selected %v; want 11, true", len(st.SelectedIDs), st.AllPageSelected)
	}

	c.SelectAll()
	if got := c.Selected(); !slices.Equal(got, before) {
		t.Errorf("SelectAll twice = %v, want %v", got, before)
	}
	if len(events) != 3 {
		t.Errorf("selection events = %d, want 3", len(events))
	}
}

func TestController_SelectAllFilteredAndSelectedRecords(t *testing.T) {
	c := NewController(numberedRecords(15), ControllerOptions{SearchFields: []string{"name"}})
	c.SetSearchTerm("member 1")

	c.SelectAllFiltered()
	if got := len(c.Selected()); got != 6 {
		t.Errorf("SelectAllFiltered selected %d, want 6 (member 10-15)", got)
	}

	c.SetSearchTerm("")
	if got := len(c.SelectedRecords()); got != 6 {
		t.Errorf("SelectedRecords() len = %d, want 6", got)
	}

	c.ClearSelection()
	if got := c.Selected(); len(got) != 0 {
		t.Errorf("Selected() after clear = %v, want empty", got)
	}
}

func TestController_SelectionPruning(t *testing.T) {
	c := NewController(numberedRecords(3), ControllerOptions{})
	var last []string
	c.OnSelectionChange(func(ids []string) { last = ids })

	c.ToggleSelect("1")
	c.ToggleSelect("2")
	c.ToggleSelect("3")

	c.SetRecords([]Record{{"id": 1}})
	if got := c.Selected(); !slices.Equal(got, []string{"1"}) {
		t.Errorf("Selected() after shrink = %v, want [1]", got)
	}
	if !slices.Equal(last, []string{"1"}) {
		t.Errorf("onSelectionChange got %v, want [1]", last)
	}
}

func TestController_SelectionKeptWhenSetDoesNotShrinkBelowSelection(t *testing.T) {
	c := NewController(numberedRecords(5), ControllerOptions{})
	c.ToggleSelect("1")
	c.ToggleSelect("5")

	c.SetRecords(numberedRecords(3))
	if got := c.Selected(); !slices.Equal(got, []string{"1", "5"}) {
		t.Errorf("Selected() = %v, want [1 5]", got)
	}
}

func TestController_Refresh(t *testing.T) {
	c := NewController(numberedRecords(30), ControllerOptions{SearchFields: []string{"name"}})
	refreshed := false
	c.OnRefresh(func() { refreshed = true })

	c.SetSearchTerm("member")
	c.HandleSort("name")
	_ = c.SetPageSize(5)
	c.HandlePage(4)
	c.ToggleSelect("2")

	c.Refresh()
	st := c.State()
	if !refreshed {
		t.Error("OnRefresh callback not invoked")
	}
	if st.Search != "" || st.SortMode != SortNone || st.Page != 1 || st.PageSize != DefaultPageSize || len(st.SelectedIDs) != 0 {
		t.Errorf("state after Refresh = %+v, want defaults", st)
	}
}

func TestLayoutFor(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{0, LayoutDesktop},
		{375, LayoutMobile},
		{767, LayoutMobile},
		{768, LayoutTablet},
		{1023, LayoutTablet},
		{1024, LayoutDesktop},
		{1920, LayoutDesktop},
	}

	for _, tt := range tests {
		if got := LayoutFor(tt.width); got != tt.want {
			t.Errorf("LayoutFor(%d) = %q, want %q", tt.width, got, tt.want)
		}
	}
}
