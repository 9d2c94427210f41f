package core

import (
	"sync"
	"time"
)

// ViewSession is one open grid: a definition, its Controller and the jq
// predicate currently applied. Each session is independent; sessions never
// share records or state.
//
// A Controller is not safe for concurrent use, so every access goes through
// the session lock.
type ViewSession struct {
	ID        string
	Grid      string
	CreatedAt time.Time

	mu        sync.Mutex
	def       Definition
	composer  *Composer
	predicate string
	lastUsed  time.Time
}

func newViewSession(id string, def Definition, ctl *Controller, now time.Time) *ViewSession {
	return &ViewSession{
		ID:        id,
		Grid:      def.Key,
		CreatedAt: now,
		def:       def,
		composer:  NewComposer(def, ctl),
		lastUsed:  now,
	}
}

// Definition returns the grid definition the session was opened with.
func (vs *ViewSession) Definition() Definition {
	return vs.def
}

// Predicate returns the active jq expression, if any.
func (vs *ViewSession) Predicate() string {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.predicate
}

// with runs fn while holding the session lock and marks the session used.
func (vs *ViewSession) with(now time.Time, fn func(c *Composer) error) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.lastUsed = now
	return fn(vs.composer)
}

func (vs *ViewSession) idleSince() time.Time {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.lastUsed
}

// SelectionEvent is published whenever a session's selection changes.
type SelectionEvent struct {
	ViewID      string   `json:"view_id"`
	Grid        string   `json:"grid"`
	SelectedIDs []string `json:"selected_ids"`
	Count       int      `json:"count"`
}

// selectionHub fans selection events out to subscribers. Slow subscribers
// drop events rather than block the session that produced them.
type selectionHub struct {
	mu   sync.Mutex
	subs map[string][]chan SelectionEvent
}

func newSelectionHub() *selectionHub {
	return &selectionHub{subs: make(map[string][]chan SelectionEvent)}
}

func (h *selectionHub) subscribe(viewID string) (<-chan SelectionEvent, func()) {
	ch := make(chan SelectionEvent, 10)

	h.mu.Lock()
	h.subs[viewID] = append(h.subs[viewID], ch)
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			list := h.subs[viewID]
			for i, c := range list {
				if c == ch {
					h.subs[viewID] = append(list[:i], list[i+1:]...)
					close(ch)
					break
				}
			}
			if len(h.subs[viewID]) == 0 {
				delete(h.subs, viewID)
			}
		})
	}
	return ch, cancel
}

func (h *selectionHub) publish(ev SelectionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[ev.ViewID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// closeView closes every subscription of one view.
func (h *selectionHub) closeView(viewID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[viewID] {
		close(ch)
	}
	delete(h.subs, viewID)
}

func (h *selectionHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, list := range h.subs {
		for _, ch := range list {
			close(ch)
		}
		delete(h.subs, id)
	}
}
