package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Action is a row or bulk action a grid offers.
type Action struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
	// Bulk actions run over the selection and are rejected when it is empty.
	Bulk bool `yaml:"bulk" json:"bulk"`
}

// Definition describes one data grid: where its records come from, how its
// columns render and what can be exported.
type Definition struct {
	Key            string                   `yaml:"key" json:"key"`
	Group          string                   `yaml:"group" json:"group"`
	Label          string                   `yaml:"label" json:"label"`
	Entity         string                   `yaml:"entity" json:"entity"`
	Table          string                   `yaml:"table" json:"-"`
	Columns        []Column                 `yaml:"columns" json:"columns"`
	ExportFields   []ExportField            `yaml:"export_fields" json:"export_fields"`
	ExportTitle    string                   `yaml:"export_title" json:"-"`
	StatusField    string                   `yaml:"status_field" json:"status_field,omitempty"`
	StatusOptions  []string                 `yaml:"status_options" json:"status_options,omitempty"`
	StatusContexts map[string]StatusContext `yaml:"status_contexts" json:"-"`
	DefaultContext StatusContext            `yaml:"default_context" json:"-"`
	SearchFields   []string                 `yaml:"search_fields" json:"-"`
	TitleField     string                   `yaml:"title_field" json:"title_field,omitempty"`
	PageSize       int                      `yaml:"page_size" json:"page_size"`
	Actions        []Action                 `yaml:"actions" json:"actions,omitempty"`
}

// Validate reports every problem with the definition at once.
func (d Definition) Validate() error {
	var errs []error
	if d.Key == "" {
		errs = append(errs, errors.New("key is required"))
	}
	if len(d.Columns) == 0 {
		errs = append(errs, errors.New("at least one column is required"))
	}
	seen := make(map[string]bool, len(d.Columns))
	for i, col := range d.Columns {
		if col.Accessor == "" {
			errs = append(errs, fmt.Errorf("column %d: accessor is required", i))
			continue
		}
		if seen[col.Accessor] {
			errs = append(errs, fmt.Errorf("column %q: duplicate accessor", col.Accessor))
		}
		seen[col.Accessor] = true
	}
	if d.PageSize < AllPages {
		errs = append(errs, fmt.Errorf("page_size %d: %w", d.PageSize, ErrInvalidPageSize))
	}
	for _, a := range d.Actions {
		if a.Key == "" {
			errs = append(errs, errors.New("action key is required"))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("grid %q: %w", d.Key, err)
	}
	return nil
}

// withDefaults fills optional fields from the columns.
func (d Definition) withDefaults() Definition {
	d.Columns = append([]Column(nil), d.Columns...)
	if d.Label == "" {
		d.Label = d.Key
	}
	if d.Entity == "" {
		d.Entity = d.Key
	}
	if d.Table == "" {
		d.Table = d.Key
	}
	if d.PageSize == 0 {
		d.PageSize = DefaultPageSize
	}
	if d.TitleField == "" && len(d.Columns) > 0 {
		d.TitleField = d.Columns[0].Accessor
	}
	if len(d.SearchFields) == 0 {
		for _, col := range d.Columns {
			if col.Kind != KindImage {
				d.SearchFields = append(d.SearchFields, col.Accessor)
			}
		}
	}
	if len(d.ExportFields) == 0 {
		for _, col := range d.Columns {
			if col.Kind != KindImage {
				d.ExportFields = append(d.ExportFields, ExportField{Label: col.Label(), Key: col.Accessor})
			}
		}
	}
	for i := range d.Columns {
		if d.Columns[i].Priority == 0 {
			d.Columns[i].Priority = 1
		}
		if d.Columns[i].Kind == "" {
			d.Columns[i].Kind = KindPlain
		}
	}
	return d
}

// ControllerOptions derives the table-state options for this grid.
func (d Definition) ControllerOptions() ControllerOptions {
	return ControllerOptions{
		SearchFields: d.SearchFields,
		StatusField:  d.StatusField,
		TitleField:   d.TitleField,
		PageSize:     d.PageSize,
	}
}

// Action looks up an action by key.
func (d Definition) Action(key string) (Action, bool) {
	for _, a := range d.Actions {
		if a.Key == key {
			return a, true
		}
	}
	return Action{}, false
}

// Column looks up a column by accessor.
func (d Definition) Column(accessor string) (Column, bool) {
	for _, col := range d.Columns {
		if col.Accessor == accessor {
			return col, true
		}
	}
	return Column{}, false
}

// Registry holds grid definitions keyed by Definition.Key.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// DefaultRegistry receives the definitions registered at init time.
var DefaultRegistry = NewRegistry()

// Register adds a grid definition to DefaultRegistry.
// Panics if the definition is invalid or the key is already registered.
func Register(def Definition) {
	if err := DefaultRegistry.Add(def); err != nil {
		panic(err)
	}
}

// Add validates and stores a definition.
func (r *Registry) Add(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	def = def.withDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Key]; exists {
		return fmt.Errorf("grid already registered: %s", def.Key)
	}
	r.defs[def.Key] = def
	return nil
}

// Replace stores a definition, overwriting any existing one with the same key.
func (r *Registry) Replace(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	def = def.withDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Key] = def
	return nil
}

// Get returns a grid definition by key.
func (r *Registry) Get(key string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[key]
	return def, ok
}

// All returns every definition sorted by group then key.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// ByGroup returns the definitions of one group sorted by key.
func (r *Registry) ByGroup(group string) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Definition
	for _, def := range r.defs {
		if def.Group == group {
			result = append(result, def)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Groups returns all unique group names sorted alphabetically.
func (r *Registry) Groups() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range r.defs {
		seen[def.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// Len returns the number of registered grids.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
