package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FetchTimeout bounds a single record-source fetch.
var FetchTimeout = 30 * time.Second

// DefaultSessionTTL is how long an idle view session survives.
const DefaultSessionTTL = 30 * time.Minute

// RecordSource produces the materialized record set of a grid. The engine
// never writes through it.
type RecordSource interface {
	Fetch(ctx context.Context, def Definition) ([]Record, error)
}

// RecordSourceFunc adapts a function to RecordSource.
type RecordSourceFunc func(ctx context.Context, def Definition) ([]Record, error)

// Fetch calls f.
func (f RecordSourceFunc) Fetch(ctx context.Context, def Definition) ([]Record, error) {
	return f(ctx, def)
}

// ActionHandler consumes the records a bulk action targets.
type ActionHandler func(ctx context.Context, def Definition, action Action, records []Record) error

// ServiceOptions configures a Service. Zero values select defaults.
type ServiceOptions struct {
	SessionTTL           time.Duration
	MaxConcurrentExports int
	ExportWait           time.Duration
	ExportTitle          string
	PreviewRows          int
	AuditCapacity        int
	Now                  func() time.Time
	// Actions maps an action key to its handler. Actions without a handler
	// are recorded in the audit trail only.
	Actions map[string]ActionHandler
}

// Service owns the open view sessions of every grid.
type Service struct {
	registry *Registry
	source   RecordSource
	limiter  *ExportLimiter
	audit    *AuditLog
	hub      *selectionHub
	opts     ServiceOptions

	mu       sync.RWMutex
	sessions map[string]*ViewSession
}

// NewService creates a Service reading definitions from registry and records
// from source.
func NewService(registry *Registry, source RecordSource, opts ServiceOptions) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PreviewRows == 0 {
		opts.PreviewRows = DefaultPreviewRows
	}
	return &Service{
		registry: registry,
		source:   source,
		limiter:  NewExportLimiter(opts.MaxConcurrentExports, opts.ExportWait),
		audit:    NewAuditLog(opts.AuditCapacity, opts.Now),
		hub:      newSelectionHub(),
		opts:     opts,
		sessions: make(map[string]*ViewSession),
	}
}

// Registry returns the grid definitions the service serves.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Audit returns the audit trail.
func (s *Service) Audit() *AuditLog {
	return s.audit
}

// ExportStatus returns the export limiter state.
func (s *Service) ExportStatus() ExportLimiterStatus {
	return s.limiter.Status()
}

// SessionCount returns the number of open view sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Grid returns a definition by key.
func (s *Service) Grid(key string) (Definition, error) {
	def, ok := s.registry.Get(key)
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownGrid, key)
	}
	return def, nil
}

func (s *Service) fetch(ctx context.Context, def Definition) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	records, err := s.source.Fetch(ctx, def)
	if err != nil {
		return nil, fmt.Errorf("fetch records for %s: %w", def.Key, err)
	}
	return records, nil
}

// OpenView fetches a grid's records and opens a new session over them.
func (s *Service) OpenView(ctx context.Context, gridKey string) (*ViewSession, error) {
	def, err := s.Grid(gridKey)
	if err != nil {
		return nil, err
	}
	records, err := s.fetch(ctx, def)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	opts := def.ControllerOptions()
	opts.Now = s.opts.Now
	ctl := NewController(records, opts)

	ctl.OnSelectionChange(func(ids []string) {
		slog.Debug("selection changed", "view_id", id, "grid", def.Key, "count", len(ids))
		s.hub.publish(SelectionEvent{ViewID: id, Grid: def.Key, SelectedIDs: ids, Count: len(ids)})
	})
	ctl.OnRefresh(func() {
		slog.Debug("view reset", "view_id", id, "grid", def.Key)
	})

	vs := newViewSession(id, def, ctl, s.opts.Now())

	s.mu.Lock()
	s.sessions[id] = vs
	s.mu.Unlock()

	s.audit.Record(ctx, AuditEntry{Action: ActionViewOpen, Grid: def.Key, ViewID: id, RowsAffected: len(ctl.Records())})
	return vs, nil
}

// Session returns an open session.
func (s *Service) Session(viewID string) (*ViewSession, error) {
	s.mu.RLock()
	vs, ok := s.sessions[viewID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, viewID)
	}
	return vs, nil
}

// Update applies fn to a session's Controller under the session lock.
func (s *Service) Update(viewID string, fn func(c *Controller) error) error {
	vs, err := s.Session(viewID)
	if err != nil {
		return err
	}
	return vs.with(s.opts.Now(), func(c *Composer) error {
		return fn(c.Controller())
	})
}

// View composes the current page of a session for a viewport width.
func (s *Service) View(viewID string, width int) (View, error) {
	vs, err := s.Session(viewID)
	if err != nil {
		return View{}, err
	}
	var v View
	err = vs.with(s.opts.Now(), func(c *Composer) error {
		v = c.Compose(width)
		return nil
	})
	v.ID = vs.ID
	v.Predicate = vs.Predicate()
	return v, err
}

// SetPredicate installs a jq predicate on a session. A blank expression
// removes it.
func (s *Service) SetPredicate(viewID, expr string) error {
	pred, err := JQPredicate(expr)
	if err != nil {
		return err
	}
	vs, err := s.Session(viewID)
	if err != nil {
		return err
	}
	return vs.with(s.opts.Now(), func(c *Composer) error {
		c.Controller().SetCustomPredicate(pred)
		vs.predicate = expr
		return nil
	})
}

// CloseView discards a session and closes its selection subscriptions.
func (s *Service) CloseView(ctx context.Context, viewID string) error {
	s.mu.Lock()
	vs, ok := s.sessions[viewID]
	delete(s.sessions, viewID)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrViewNotFound, viewID)
	}
	s.hub.closeView(viewID)
	s.audit.Record(ctx, AuditEntry{Action: ActionViewClose, Grid: vs.Grid, ViewID: viewID})
	return nil
}

// RefreshView re-fetches a session's records and resets its state. When the
// fetch fails the session is left exactly as it was.
func (s *Service) RefreshView(ctx context.Context, viewID string) error {
	vs, err := s.Session(viewID)
	if err != nil {
		return err
	}

	records, err := s.fetch(ctx, vs.def)
	if err != nil {
		slog.Warn("refresh failed, keeping current records",
			"view_id", viewID,
			"grid", vs.Grid,
			"error", err,
		)
		return err
	}

	err = vs.with(s.opts.Now(), func(c *Composer) error {
		ctl := c.Controller()
		ctl.SetRecords(records)
		ctl.Refresh()
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{Action: ActionViewRefresh, Grid: vs.Grid, ViewID: viewID, RowsAffected: len(records)})
	return nil
}

// SubscribeSelection returns a channel of selection changes for one session
// and a function that ends the subscription.
func (s *Service) SubscribeSelection(viewID string) (<-chan SelectionEvent, func(), error) {
	if _, err := s.Session(viewID); err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.subscribe(viewID)
	return ch, cancel, nil
}

// RecordByID finds a record of a session by its id, for row actions.
func (s *Service) RecordByID(viewID, id string) (Record, error) {
	vs, err := s.Session(viewID)
	if err != nil {
		return nil, err
	}
	var found Record
	_ = vs.with(s.opts.Now(), func(c *Composer) error {
		idx := slices.IndexFunc(c.Controller().Records(), func(r Record) bool { return RecordID(r) == id })
		if idx >= 0 {
			found = c.Controller().Records()[idx]
		}
		return nil
	})
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return found, nil
}

// BulkResult reports a completed bulk action.
type BulkResult struct {
	Action string   `json:"action"`
	Count  int      `json:"count"`
	IDs    []string `json:"ids"`
}

// RunBulkAction runs a grid action over the session's current selection.
// Row actions such as view or edit are not runnable here.
func (s *Service) RunBulkAction(ctx context.Context, viewID, actionKey string) (BulkResult, error) {
	vs, err := s.Session(viewID)
	if err != nil {
		return BulkResult{}, err
	}
	action, ok := vs.def.Action(actionKey)
	if !ok || !action.Bulk {
		return BulkResult{}, fmt.Errorf("%w: %s", ErrUnknownAction, actionKey)
	}

	var (
		ids     []string
		records []Record
	)
	_ = vs.with(s.opts.Now(), func(c *Composer) error {
		ids = c.Controller().Selected()
		records = c.Controller().SelectedRecords()
		return nil
	})
	if len(records) == 0 {
		return BulkResult{}, ErrNoRecipients
	}

	if handler := s.opts.Actions[action.Key]; handler != nil {
		if err := handler(ctx, vs.def, action, records); err != nil {
			return BulkResult{}, fmt.Errorf("action %s: %w", action.Key, err)
		}
	}

	s.audit.Record(ctx, AuditEntry{
		Action:       ActionBulk,
		Grid:         vs.Grid,
		ViewID:       viewID,
		Detail:       action.Key,
		RowsAffected: len(records),
	})
	return BulkResult{Action: action.Key, Count: len(records), IDs: ids}, nil
}

// NewExporter starts an export of a grid. With a viewID the export covers
// the same raw records the session was opened with; otherwise the records
// are fetched.
func (s *Service) NewExporter(ctx context.Context, gridKey, viewID string) (*Exporter, error) {
	def, err := s.Grid(gridKey)
	if err != nil {
		return nil, err
	}

	var records []Record
	if viewID != "" {
		vs, err := s.Session(viewID)
		if err != nil {
			return nil, err
		}
		if vs.Grid != def.Key {
			return nil, fmt.Errorf("invalid request: view %s belongs to grid %s", viewID, vs.Grid)
		}
		_ = vs.with(s.opts.Now(), func(c *Composer) error {
			records = c.Controller().Records()
			return nil
		})
	} else {
		records, err = s.fetch(ctx, def)
		if err != nil {
			return nil, err
		}
	}

	exp := NewExporter(def, records)
	if def.ExportTitle == "" && s.opts.ExportTitle != "" {
		exp.SetTitle(s.opts.ExportTitle)
	}
	if err := exp.SetPreviewRows(s.opts.PreviewRows); err != nil {
		return nil, err
	}
	return exp, nil
}

// Export renders exp to w in the given format. Renders are bounded by the
// export limiter; a render that cannot get a slot fails with
// ErrTooManyExports before anything is written.
func (s *Service) Export(ctx context.Context, format ExportFormat, exp *Exporter, w io.Writer) error {
	release, err := s.limiter.Acquire(ctx, exp.Entity())
	if err != nil {
		slog.Warn("export rejected", "entity", exp.Entity(), "format", format, "error", err)
		return err
	}
	defer release()

	start := time.Now()
	if err := exp.Write(w, format); err != nil {
		if !IsValidation(err) {
			slog.Error("export failed", "entity", exp.Entity(), "format", format, "error", err)
		}
		return err
	}

	rows := len(exp.Filtered())
	slog.Info("export complete",
		"entity", exp.Entity(),
		"format", format,
		"fields", len(exp.Included()),
		"rows", rows,
		"duration", time.Since(start),
	)
	s.audit.Record(ctx, AuditEntry{
		Action:       ActionExport,
		Grid:         exp.Entity(),
		Detail:       string(format),
		RowsAffected: rows,
	})
	return nil
}

// Shutdown waits for in-flight exports and closes every subscription.
func (s *Service) Shutdown(ctx context.Context) error {
	err := s.limiter.WaitForDrain(ctx)
	s.hub.closeAll()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("wait for exports: %w", err)
	}
	return nil
}
