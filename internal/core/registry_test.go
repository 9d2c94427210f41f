package core

import (
	"strings"
	"testing"
)

func TestDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr []string
	}{
		{
			name: "valid",
			def:  Definition{Key: "tickets", Columns: []Column{{Accessor: "code"}}},
		},
		{
			name:    "missing key and columns",
			def:     Definition{},
			wantErr: []string{"key is required", "at least one column is required"},
		},
		{
			name: "duplicate and empty accessors",
			def: Definition{Key: "tickets", Columns: []Column{
				{Accessor: "code"}, {Accessor: "code"}, {Accessor: ""},
			}},
			wantErr: []string{`column "code": duplicate accessor`, "column 2: accessor is required"},
		},
		{
			name:    "bad page size",
			def:     Definition{Key: "tickets", PageSize: -5, Columns: []Column{{Accessor: "code"}}},
			wantErr: []string{"invalid page size"},
		},
		{
			name: "action without key",
			def: Definition{Key: "tickets", Columns: []Column{{Accessor: "code"}},
				Actions: []Action{{Label: "Email"}}},
			wantErr: []string{"action key is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %q", err, want)
				}
			}
		})
	}
}

func TestDefinition_Defaults(t *testing.T) {
	cols := []Column{
		{Accessor: "photo", Kind: KindImage},
		{Accessor: "name", Header: "Name"},
		{Accessor: "email"},
	}
	def := Definition{Key: "applicants", Columns: cols}.withDefaults()

	if def.Label != "applicants" || def.Entity != "applicants" || def.Table != "applicants" {
		t.Errorf("label/entity/table = %q/%q/%q", def.Label, def.Entity, def.Table)
	}
	if def.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want %d", def.PageSize, DefaultPageSize)
	}
	if def.TitleField != "photo" {
		t.Errorf("TitleField = %q, want first column", def.TitleField)
	}
	if got := strings.Join(def.SearchFields, ","); got != "name,email" {
		t.Errorf("SearchFields = %s, want name,email", got)
	}
	if len(def.ExportFields) != 2 || def.ExportFields[0].Label != "Name" || def.ExportFields[1].Label != "email" {
		t.Errorf("ExportFields = %+v", def.ExportFields)
	}
	for _, col := range def.Columns {
		if col.Priority != 1 {
			t.Errorf("column %s priority = %d, want 1", col.Accessor, col.Priority)
		}
	}
	if def.Columns[1].Kind != KindPlain {
		t.Errorf("default kind = %q, want plain", def.Columns[1].Kind)
	}
	if cols[1].Kind != "" || cols[1].Priority != 0 {
		t.Error("withDefaults modified the caller's columns")
	}
}

func TestDefinition_Lookups(t *testing.T) {
	def := Definition{
		Key:     "registrations",
		Columns: []Column{{Accessor: "name"}},
		Actions: []Action{{Key: "email", Label: "Email", Bulk: true}},
	}

	if a, ok := def.Action("email"); !ok || !a.Bulk {
		t.Errorf("Action(email) = %+v, %v", a, ok)
	}
	if _, ok := def.Action("delete"); ok {
		t.Error("Action(delete) should not exist")
	}
	if _, ok := def.Column("name"); !ok {
		t.Error("Column(name) should exist")
	}
	if _, ok := def.Column("missing"); ok {
		t.Error("Column(missing) should not exist")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	defs := []Definition{
		{Key: "tickets", Group: "events", Columns: []Column{{Accessor: "code"}}},
		{Key: "applicants", Group: "members", Columns: []Column{{Accessor: "name"}}},
		{Key: "events", Group: "events", Columns: []Column{{Accessor: "title"}}},
	}
	for _, d := range defs {
		if err := r.Add(d); err != nil {
			t.Fatalf("Add(%s): %v", d.Key, err)
		}
	}

	if err := r.Add(defs[0]); err == nil {
		t.Error("duplicate Add should fail")
	}
	if err := r.Add(Definition{Key: "broken"}); err == nil {
		t.Error("invalid Add should fail")
	}
	if r.Len() != 3 {
		t.Errorf("Len = %d, want 3", r.Len())
	}

	var keys []string
	for _, d := range r.All() {
		keys = append(keys, d.Key)
	}
	if got := strings.Join(keys, ","); got != "events,tickets,applicants" {
		t.Errorf("All order = %s", got)
	}

	if got := strings.Join(r.Groups(), ","); got != "events,members" {
		t.Errorf("Groups = %s", got)
	}
	if got := r.ByGroup("events"); len(got) != 2 || got[0].Key != "events" {
		t.Errorf("ByGroup(events) = %+v", got)
	}

	def, ok := r.Get("tickets")
	if !ok || def.PageSize != DefaultPageSize {
		t.Errorf("Get(tickets) = %+v, %v; want defaults applied", def, ok)
	}

	if err := r.Replace(Definition{Key: "tickets", Label: "Tickets", Columns: []Column{{Accessor: "code"}}}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if def, _ := r.Get("tickets"); def.Label != "Tickets" {
		t.Errorf("Replace label = %q", def.Label)
	}
}
