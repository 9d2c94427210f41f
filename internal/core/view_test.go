package core

import (
	"fmt"
	"testing"
)

func testDefinition() Definition {
	def := Definition{
		Key:         "orders",
		Label:       "Orders",
		StatusField: "status",
		Columns: []Column{
			{Accessor: "customer", Header: "Customer", Sortable: true, Priority: 1},
			{Accessor: "status", Header: "Status", Priority: 1},
			{Accessor: "total_price", Header: "Total", Sortable: true, Priority: 2},
			{Accessor: "created_at", Header: "Placed", Priority: 2},
			{Accessor: "email", Header: "Email", Priority: 3},
			{Accessor: "phone", Header: "Phone", Priority: 3},
			{Accessor: "notes", Header: "Notes", Priority: 3},
			{Accessor: "avatar", Header: "Avatar", Kind: KindImage, Priority: 3},
			{Accessor: "ref", Header: "Ref", Kind: KindCustom, Priority: 3, Render: func(rec Record, value any, index int) string {
				return fmt.Sprintf("#%d %v", index+1, value)
			}},
		},
	}
	return def.withDefaults()
}

func testOrders() []Record {
	return []Record{
		{"id": 1, "customer": "Amy", "status": "pending", "total_price": 1234.5, "created_at": "2024-03-15", "email": "amy@example.com", "ref": "A-1"},
		{"id": 2, "customer": "Ben", "status": "completed", "total_price": "20", "created_at": "2024-04-01", "avatar": "https://cdn.example.com/ben.png", "ref": "B-2"},
		{"id": 3, "customer": "Cy", "status": "N/A", "total_price": nil, "created_at": "", "ref": "C-3"},
	}
}

func TestComposer_Desktop(t *testing.T) {
	def := testDefinition()
	ctl := NewController(testOrders(), def.ControllerOptions())
	ctl.ToggleSelect("2")
	v := NewComposer(def, ctl).Compose(1440)

	if v.Layout != LayoutDesktop || v.IsMobile || v.IsTablet {
		t.Fatalf("layout = %q (mobile %v tablet %v), want desktop", v.Layout, v.IsMobile, v.IsTablet)
	}
	if len(v.Columns) != len(def.Columns) {
		t.Errorf("len(Columns) = %d, want %d", len(v.Columns), len(def.Columns))
	}
	if len(v.Rows) != 3 || len(v.Cards) != 0 {
		t.Fatalf("rows/cards = %d/%d, want 3/0", len(v.Rows), len(v.Cards))
	}

	status := v.Columns[1]
	if !status.Status || status.Context != ContextSales {
		t.Errorf("status column = %+v, want status column in sales context", status)
	}

	first := v.Rows[0]
	if first.Cells[1].Pill == nil || first.Cells[1].Pill.Label != "Pending" {
		t.Errorf("status cell = %+v, want Pending pill", first.Cells[1])
	}
	if got := first.Cells[2].Text; got != "$1,234.50" {
		t.Errorf("total cell = %q, want $1,234.50", got)
	}
	if got := first.Cells[3].Text; got != "Mar 15, 2024" {
		t.Errorf("date cell = %q, want Mar 15, 2024", got)
	}
	if got := first.Cells[8].Text; got != "#1 A-1" {
		t.Errorf("custom cell = %q, want #1 A-1", got)
	}
	if got := first.Cells[7].Format; got != CellEmpty {
		t.Errorf("missing image format = %q, want empty", got)
	}
	if got := v.Rows[1].Cells[7].ImageURL; got != "https://cdn.example.com/ben.png" {
		t.Errorf("image url = %q", got)
	}
	if !v.Rows[1].Selected || v.Rows[0].Selected {
		t.Error("row selection flags do not match the selection")
	}
	if got := v.Rows[2].Cells[1].Pill.Label; got != "N/A" {
		t.Errorf("placeholder status label = %q, want N/A", got)
	}
	if got := v.Rows[2].Cells[2].Text; got != EmptyCell {
		t.Errorf("missing total = %q, want %q", got, EmptyCell)
	}
}

func TestComposer_TabletDropsLowPriorityColumns(t *testing.T) {
	def := testDefinition()
	v := NewComposer(def, NewController(testOrders(), def.ControllerOptions())).Compose(900)

	if v.Layout != LayoutTablet || !v.IsTablet {
		t.Fatalf("layout = %q, want tablet", v.Layout)
	}
	if len(v.Columns) != 4 {
		t.Errorf("len(Columns) = %d, want 4", len(v.Columns))
	}
	for _, row := range v.Rows {
		if len(row.Cells) != len(v.Columns) {
			t.Errorf("row %s has %d cells, want %d", row.ID, len(row.Cells), len(v.Columns))
		}
	}
}

func TestComposer_MobileCards(t *testing.T) {
	def := testDefinition()
	ctl := NewController(testOrders(), def.ControllerOptions())
	ctl.ToggleSelect("1")
	v := NewComposer(def, ctl).Compose(375)

	if v.Layout != LayoutMobile || !v.IsMobile {
		t.Fatalf("layout = %q, want mobile", v.Layout)
	}
	if len(v.Rows) != 0 || len(v.Cards) != 3 {
		t.Fatalf("rows/cards = %d/%d, want 0/3", len(v.Rows), len(v.Cards))
	}

	card := v.Cards[0]
	if card.Title != "Amy" {
		t.Errorf("card title = %q, want Amy", card.Title)
	}
	if !card.Selected {
		t.Error("card 1 should be selected")
	}
	if card.Status == nil || card.Status.Label != "Pending" {
		t.Errorf("card status = %+v, want Pending pill", card.Status)
	}
	if len(card.Fields) != MaxCardFields {
		t.Errorf("card fields = %d, want %d", len(card.Fields), MaxCardFields)
	}
	if card.Fields[0].Label != "Total" || card.Fields[0].Text != "$1,234.50" {
		t.Errorf("first card field = %+v, want Total $1,234.50", card.Fields[0])
	}
}

func TestComposer_ExplicitStatusContext(t *testing.T) {
	def := testDefinition()
	def.StatusContexts = map[string]StatusContext{"status": ContextPayment}
	v := NewComposer(def, NewController(testOrders(), def.ControllerOptions())).Compose(0)

	if got := v.Columns[1].Context; got != ContextPayment {
		t.Errorf("status context = %q, want payment", got)
	}
}

func TestComposer_SortIndicator(t *testing.T) {
	def := testDefinition()
	ctl := NewController(testOrders(), def.ControllerOptions())
	ctl.HandleSort("total_price")
	ctl.HandleSort("total_price")
	v := NewComposer(def, ctl).Compose(0)

	if got := v.Columns[2].SortDirection; got != DirDesc {
		t.Errorf("total sort direction = %q, want desc", got)
	}
	if got := v.Columns[0].SortDirection; got != "" {
		t.Errorf("customer sort direction = %q, want none", got)
	}
	if got := v.Rows[0].ID; got != "1" {
		t.Errorf("first row = %s, want 1 (largest total)", got)
	}
}
