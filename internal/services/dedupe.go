package services

import (
	"sync"
	"time"
)

// DefaultDedupeWindow covers LINE's redelivery attempts
const DefaultDedupeWindow = 10 * time.Minute

// Deduper remembers webhook event ids for a window so redeliveries are skipped
type Deduper struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
	lastGC time.Time
	now    func() time.Time
}

// NewDeduper creates a deduper with the given window
func NewDeduper(window time.Duration) *Deduper {
	if window <= 0 {
		window = DefaultDedupeWindow
	}
	return &Deduper{
		seen:   make(map[string]time.Time),
		window: window,
		now:    time.Now,
	}
}

// Seen records id and reports whether it was already recorded inside the window.
// Empty ids are never considered seen.
func (d *Deduper) Seen(id string) bool {
	if id == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if now.Sub(d.lastGC) > d.window {
		d.gc(now)
	}
	if when, ok := d.seen[id]; ok && now.Sub(when) <= d.window {
		return true
	}
	d.seen[id] = now
	return false
}

func (d *Deduper) gc(now time.Time) {
	cut := now.Add(-d.window)
	for k, v := range d.seen {
		if v.Before(cut) {
			delete(d.seen, k)
		}
	}
	d.lastGC = now
}
