package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionViewOpen    AuditAction = "view_open"
	ActionViewClose   AuditAction = "view_close"
	ActionViewRefresh AuditAction = "view_refresh"
	ActionViewEvicted AuditAction = "view_evicted"
	ActionExport      AuditAction = "export"
	ActionBulk        AuditAction = "bulk_action"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// DefaultAuditCapacity bounds the in-memory audit trail.
const DefaultAuditCapacity = 500

// DefaultHistoryLimit is the page size for audit queries without a limit.
const DefaultHistoryLimit = 50

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID           string        `json:"id"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	Grid         string        `json:"grid"`
	ViewID       string        `json:"viewId,omitempty"`
	IPAddress    string        `json:"ipAddress,omitempty"`
	UserAgent    string        `json:"userAgent,omitempty"`
	RequestID    string        `json:"requestId,omitempty"`
	Detail       string        `json:"detail,omitempty"`
	RowsAffected int           `json:"rowsAffected,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionExport, ActionBulk:
		return SeverityHigh
	case ActionViewRefresh, ActionViewEvicted:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// AuditLog keeps the most recent entries in a fixed-size ring.
type AuditLog struct {
	mu      sync.RWMutex
	entries []AuditEntry
	next    int
	full    bool
	now     func() time.Time
}

// NewAuditLog creates a log holding at most capacity entries.
func NewAuditLog(capacity int, now func() time.Time) *AuditLog {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}
	if now == nil {
		now = time.Now
	}
	return &AuditLog{entries: make([]AuditEntry, capacity), now: now}
}

// Record stores an entry, filling id, severity, timestamp and the request
// metadata carried by ctx.
func (a *AuditLog) Record(ctx context.Context, entry AuditEntry) AuditEntry {
	entry.ID = uuid.NewString()
	entry.Severity = determineSeverity(entry.Action)
	entry.CreatedAt = a.now()
	RequestMetaFrom(ctx).fill(&entry)

	a.mu.Lock()
	a.entries[a.next] = entry
	a.next = (a.next + 1) % len(a.entries)
	if a.next == 0 {
		a.full = true
	}
	a.mu.Unlock()

	slog.Info("audit",
		"action", entry.Action,
		"severity", entry.Severity,
		"grid", entry.Grid,
		"view_id", entry.ViewID,
		"rows", entry.RowsAffected,
		"ip", entry.IPAddress,
		"request_id", entry.RequestID,
	)
	return entry
}

// AuditLogFilter contains filtering options for querying audit logs.
type AuditLogFilter struct {
	Grid   string
	Action AuditAction
	Limit  int
}

// Recent returns matching entries, newest first.
func (a *AuditLog) Recent(filter AuditLogFilter) []AuditEntry {
	if filter.Limit <= 0 {
		filter.Limit = DefaultHistoryLimit
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	n := a.next
	if a.full {
		n = len(a.entries)
	}

	out := make([]AuditEntry, 0, min(n, filter.Limit))
	for i := 0; i < n && len(out) < filter.Limit; i++ {
		idx := (a.next - 1 - i + len(a.entries)) % len(a.entries)
		e := a.entries[idx]
		if filter.Grid != "" && e.Grid != filter.Grid {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		out = append(out, e)
	}
	return out
}
