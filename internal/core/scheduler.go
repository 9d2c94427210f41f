package core

// scheduler.go runs background maintenance for the service.
//
// The session janitor closes view sessions that have been idle longer than
// the session TTL. It is long-running and stops when its context is
// cancelled; eviction never fails the application.

import (
	"context"
	"log/slog"
	"time"
)

// JanitorConfig holds configuration for the session janitor.
type JanitorConfig struct {
	// CheckInterval is how often idle sessions are swept (default: TTL/2, at least 1s).
	CheckInterval time.Duration
}

// StartSessionJanitor sweeps idle sessions every CheckInterval until ctx is
// cancelled.
func (s *Service) StartSessionJanitor(ctx context.Context, cfg JanitorConfig) {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = max(s.opts.SessionTTL/2, time.Second)
	}

	slog.Info("session janitor started",
		"ttl", s.opts.SessionTTL,
		"interval", interval,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			s.EvictIdle(ctx)
		}
	}
}

// EvictIdle closes sessions unused for longer than the session TTL and
// returns how many were closed.
func (s *Service) EvictIdle(ctx context.Context) int {
	start := time.Now()
	cutoff := s.opts.Now().Add(-s.opts.SessionTTL)

	s.mu.Lock()
	var evicted []*ViewSession
	for id, vs := range s.sessions {
		if vs.idleSince().Before(cutoff) {
			evicted = append(evicted, vs)
			delete(s.sessions, id)
		}
	}
	remaining := len(s.sessions)
	s.mu.Unlock()

	for _, vs := range evicted {
		s.hub.closeView(vs.ID)
		s.audit.Record(ctx, AuditEntry{Action: ActionViewEvicted, Grid: vs.Grid, ViewID: vs.ID})
	}

	if len(evicted) > 0 {
		slog.Info("evicted idle views",
			"evicted", len(evicted),
			"remaining", remaining,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return len(evicted)
}
