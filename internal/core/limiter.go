package core

// limiter.go bounds concurrent export renders.
//
// Slots come from a weighted semaphore. A render that cannot get one within
// maxWait fails with ErrTooManyExports. Active renders are counted per grid
// for the health endpoint, and an idle channel lets shutdown wait for the
// last render without polling.

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrentExports is the default limit for parallel export renders.
const DefaultMaxConcurrentExports = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 10 * time.Second

// ExportLimiter hands out export slots.
type ExportLimiter struct {
	slots   *semaphore.Weighted
	size    int
	maxWait time.Duration

	mu     sync.Mutex
	active int
	byGrid map[string]int
	idle   chan struct{} // closed while nothing renders
}

// NewExportLimiter creates a limiter allowing maxConcurrent renders at once.
func NewExportLimiter(maxConcurrent int, maxWait time.Duration) *ExportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentExports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	idle := make(chan struct{})
	close(idle)
	return &ExportLimiter{
		slots:   semaphore.NewWeighted(int64(maxConcurrent)),
		size:    maxConcurrent,
		maxWait: maxWait,
		byGrid:  make(map[string]int),
		idle:    idle,
	}
}

// Acquire waits for a slot to render an export of grid. The returned
// release func gives the slot back and is safe to call more than once.
func (l *ExportLimiter) Acquire(ctx context.Context, grid string) (release func(), err error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.slots.Acquire(waitCtx, 1); err != nil {
		// Caller cancellation wins over our own timeout.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrTooManyExports
	}
	return l.enter(grid), nil
}

// TryAcquire takes a slot without blocking.
func (l *ExportLimiter) TryAcquire(grid string) (release func(), ok bool) {
	if !l.slots.TryAcquire(1) {
		return nil, false
	}
	return l.enter(grid), true
}

func (l *ExportLimiter) enter(grid string) func() {
	l.mu.Lock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.byGrid[grid]++
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { l.leave(grid) })
	}
}

func (l *ExportLimiter) leave(grid string) {
	l.mu.Lock()
	l.active--
	if n := l.byGrid[grid] - 1; n > 0 {
		l.byGrid[grid] = n
	} else {
		delete(l.byGrid, grid)
	}
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	l.slots.Release(1)
}

// ActiveCount returns the number of exports currently rendering.
func (l *ExportLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// WaitForDrain blocks until no export is rendering or ctx is done.
func (l *ExportLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExportLimiterStatus is a snapshot of the limiter.
type ExportLimiterStatus struct {
	Active        int            `json:"active"`
	Available     int            `json:"available"`
	MaxConcurrent int            `json:"max_concurrent"`
	ByGrid        map[string]int `json:"by_grid,omitempty"`
}

// Status returns the current limiter state for the health endpoint.
func (l *ExportLimiter) Status() ExportLimiterStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	var byGrid map[string]int
	if len(l.byGrid) > 0 {
		byGrid = make(map[string]int, len(l.byGrid))
		for k, v := range l.byGrid {
			byGrid[k] = v
		}
	}
	return ExportLimiterStatus{
		Active:        l.active,
		Available:     l.size - l.active,
		MaxConcurrent: l.size,
		ByGrid:        byGrid,
	}
}
