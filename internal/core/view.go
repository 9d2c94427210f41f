package core

// view.go composes a grid definition and its Controller into a render-ready
// View for one viewport width.
//
// Layouts:
//
//	desktop  full table, every column
//	tablet   compact table, columns with priority <= TabletMaxPriority
//	mobile   one card per record: title, up to MaxCardFields pairs, status pill

// TabletMaxPriority is the highest column priority shown on tablets.
const TabletMaxPriority = 2

// MaxCardFields bounds the label/value pairs on a mobile card.
const MaxCardFields = 4

// ViewColumn is a visible column header.
type ViewColumn struct {
	Accessor        string        `json:"accessor"`
	Header          string        `json:"header"`
	Kind            ColumnKind    `json:"kind"`
	Sortable        bool          `json:"sortable"`
	SortDirection   SortDirection `json:"sort_direction,omitempty"`
	Status          bool          `json:"status"`
	Context         StatusContext `json:"context,omitempty"`
	ClassName       string        `json:"className,omitempty"`
	HeaderClassName string        `json:"headerClassName,omitempty"`
}

// ViewCell is one rendered value.
type ViewCell struct {
	Accessor  string     `json:"accessor"`
	Label     string     `json:"label,omitempty"`
	Text      string     `json:"text"`
	Format    CellFormat `json:"format"`
	Kind      ColumnKind `json:"kind"`
	Pill      *Pill      `json:"pill,omitempty"`
	ImageURL  string     `json:"image_url,omitempty"`
	ClassName string     `json:"className,omitempty"`
}

// ViewRow is one table row.
type ViewRow struct {
	ID       string     `json:"id"`
	Selected bool       `json:"selected"`
	Cells    []ViewCell `json:"cells"`
}

// ViewCard is one mobile card.
type ViewCard struct {
	ID       string     `json:"id"`
	Selected bool       `json:"selected"`
	Title    string     `json:"title"`
	Fields   []ViewCell `json:"fields"`
	Status   *Pill      `json:"status,omitempty"`
}

// View is everything a renderer needs for one grid page.
type View struct {
	ID        string       `json:"id,omitempty"`
	Grid      string       `json:"grid"`
	Label     string       `json:"label"`
	Layout    LayoutMode   `json:"layout"`
	IsMobile  bool         `json:"is_mobile"`
	IsTablet  bool         `json:"is_tablet"`
	Columns   []ViewColumn `json:"columns"`
	Rows      []ViewRow    `json:"rows,omitempty"`
	Cards     []ViewCard   `json:"cards,omitempty"`
	State     TableState   `json:"state"`
	Actions   []Action     `json:"actions,omitempty"`
	Statuses  []string     `json:"statuses,omitempty"`
	Predicate string       `json:"predicate,omitempty"`
}

// Composer renders a Controller's state with a grid definition.
type Composer struct {
	def Definition
	ctl *Controller
}

// NewComposer pairs a definition with a Controller.
func NewComposer(def Definition, ctl *Controller) *Composer {
	return &Composer{def: def, ctl: ctl}
}

// Controller returns the underlying Controller.
func (c *Composer) Controller() *Controller {
	return c.ctl
}

// Definition returns the grid definition.
func (c *Composer) Definition() Definition {
	return c.def
}

// StatusContexts classifies every status column against the whole input set.
func (c *Composer) StatusContexts() map[string]StatusContext {
	opts := ClassifierOptions{Explicit: c.def.StatusContexts, Default: c.def.DefaultContext}
	out := make(map[string]StatusContext)
	for _, col := range c.def.Columns {
		if IsStatusColumn(col) {
			out[col.Accessor] = ClassifyColumn(col, ColumnSample(c.ctl.Records(), col.Accessor), opts)
		}
	}
	return out
}

// Compose derives the view for a viewport width. A non-positive width
// renders the desktop layout.
func (c *Composer) Compose(width int) View {
	layout := LayoutFor(width)
	st := c.ctl.State()
	contexts := c.StatusContexts()
	selected := make(map[string]bool, len(st.SelectedIDs))
	for _, id := range st.SelectedIDs {
		selected[id] = true
	}

	cols := c.visibleColumns(layout)
	v := View{
		Grid:     c.def.Key,
		Label:    c.def.Label,
		Layout:   layout,
		IsMobile: layout == LayoutMobile,
		IsTablet: layout == LayoutTablet,
		Columns:  make([]ViewColumn, 0, len(cols)),
		State:    st,
		Actions:  c.def.Actions,
		Statuses: c.def.StatusOptions,
	}

	for _, col := range cols {
		vc := ViewColumn{
			Accessor:        col.Accessor,
			Header:          col.Label(),
			Kind:            col.Kind,
			Sortable:        col.Sortable,
			ClassName:       col.ClassName,
			HeaderClassName: col.HeaderClassName,
		}
		if ctx, ok := contexts[col.Accessor]; ok {
			vc.Status = true
			vc.Context = ctx
		}
		if st.Sort.Key == col.Accessor && (st.SortMode == SortAsc || st.SortMode == SortDesc) {
			vc.SortDirection = st.Sort.Direction
		}
		v.Columns = append(v.Columns, vc)
	}

	if layout == LayoutMobile {
		v.Cards = make([]ViewCard, 0, len(st.Paged))
		for i, rec := range st.Paged {
			v.Cards = append(v.Cards, c.card(rec, i, contexts, selected))
		}
		return v
	}

	v.Rows = make([]ViewRow, 0, len(st.Paged))
	for i, rec := range st.Paged {
		id := RecordID(rec)
		row := ViewRow{ID: id, Selected: selected[id], Cells: make([]ViewCell, 0, len(cols))}
		for _, col := range cols {
			row.Cells = append(row.Cells, renderCell(col, rec, i, contexts))
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}

func (c *Composer) visibleColumns(layout LayoutMode) []Column {
	if layout != LayoutTablet {
		return c.def.Columns
	}
	out := make([]Column, 0, len(c.def.Columns))
	for _, col := range c.def.Columns {
		if col.Priority <= TabletMaxPriority {
			out = append(out, col)
		}
	}
	return out
}

func (c *Composer) card(rec Record, index int, contexts map[string]StatusContext, selected map[string]bool) ViewCard {
	id := RecordID(rec)
	card := ViewCard{ID: id, Selected: selected[id]}

	titleCol, ok := c.def.Column(c.def.TitleField)
	if !ok {
		titleCol = Column{Accessor: c.def.TitleField}
	}
	card.Title = renderCell(titleCol, rec, index, contexts).Text

	for _, col := range c.def.Columns {
		if ctx, isStatus := contexts[col.Accessor]; isStatus {
			if card.Status == nil {
				pill := PillFor(ctx, FieldValue(rec, col.Accessor))
				card.Status = &pill
			}
			continue
		}
		if col.Accessor == c.def.TitleField || col.Kind == KindImage || len(card.Fields) == MaxCardFields {
			continue
		}
		cell := renderCell(col, rec, index, contexts)
		cell.Label = col.Label()
		card.Fields = append(card.Fields, cell)
	}
	return card
}

// renderCell dispatches on the column kind.
func renderCell(col Column, rec Record, index int, contexts map[string]StatusContext) ViewCell {
	value := FieldValue(rec, col.Accessor)
	cell := ViewCell{Accessor: col.Accessor, Kind: col.Kind, ClassName: col.ClassName}

	if ctx, ok := contexts[col.Accessor]; ok {
		pill := PillFor(ctx, value)
		cell.Pill = &pill
		cell.Text = pill.Label
		cell.Format = CellRaw
		return cell
	}

	switch col.Kind {
	case KindCustom:
		if col.Render != nil {
			cell.Text = col.Render(rec, value, index)
			cell.Format = CellRaw
			return cell
		}
	case KindImage:
		cell.ImageURL = Stringify(value)
		cell.Text = col.Label()
		cell.Format = CellRaw
		if cell.ImageURL == "" {
			cell.Text = EmptyCell
			cell.Format = CellEmpty
		}
		return cell
	}

	formatted := FormatCell(col, value)
	cell.Text = formatted.Text
	cell.Format = formatted.Format
	return cell
}
