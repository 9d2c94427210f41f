// Package core is the tabular view engine behind the admin console grids.
//
// It turns a set of loosely-typed records into a paginated, filterable,
// sortable, selectable view with context-aware status pills, and exports the
// filtered records to CSV or PDF. Nothing here knows about HTTP or SQL; the
// web layer drives it and a [RecordSource] feeds it.
//
// # Grid Registry
//
// Grids are registered at init time using [Register] (the grids package loads
// them from embedded YAML). Each [Definition] names its columns, status field,
// export fields and actions:
//
//	core.Register(core.Definition{
//	    Key:         "applicants",
//	    Group:       "members",
//	    StatusField: "status",
//	    Columns: []core.Column{
//	        {Accessor: "name", Header: "Name", Sortable: true},
//	        {Accessor: "status", Header: "Status", Kind: core.KindStatus},
//	    },
//	})
//
// # Table State
//
// A [Controller] owns one grid's interactive state. Its derived [TableState]
// is computed in a fixed order:
//
//  1. date range and custom predicate
//  2. free-text search over the search fields
//  3. status filter
//  4. sort mode or column sort (stable)
//  5. paging, with the page clamped into range
//
// Selection survives paging and is pruned to records that still exist.
//
// # Views and Sessions
//
// A [Composer] renders a Controller for a viewport width ([LayoutFor]):
// full table, compact table or mobile cards. Status columns are classified
// once per record set by [ClassifyColumn] and rendered through [PillFor].
//
// The [Service] keeps one [ViewSession] per open grid, each with its own
// records and state, evicts idle sessions, publishes selection changes and
// records an in-memory audit trail.
//
// # Export
//
// An [Exporter] has its own status filter, date range, field inclusion and
// field order. Renders run through an [ExportLimiter] so a burst of PDF
// exports cannot exhaust the server.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - EXP001-EXP003: Export errors (no fields, busy, render failure)
//   - SEL001: Selection errors (bulk action without recipients)
//   - GRID001-GRID004: Grid errors (expired view, unknown grid/action/record)
//   - VAL001-VAL004: Validation errors (page size, date range, predicate, sort)
//   - REQ001-REQ002: Request errors (malformed, cancelled)
//   - DB001-DB003: Record source errors (connection, timeout, fetch)
//   - RATE001: Rate limiting
package core
