package service

import (
	"sync"
	"time"

	"github.com/iconidentify/tokgrabba/internal/domain"
)

// DefaultActivitySize is the number of outcomes kept when none is configured.
const DefaultActivitySize = 100

// ActivityLog keeps the most recent request outcomes in a fixed-size ring.
// Nothing is persisted. A nil *ActivityLog drops everything.
type ActivityLog struct {
	mu      sync.RWMutex
	entries []domain.ActivityEntry
	head    int // next write position
	count   int
}

// NewActivityLog creates a ring holding size entries.
func NewActivityLog(size int) *ActivityLog {
	if size <= 0 {
		size = DefaultActivitySize
	}
	return &ActivityLog{entries: make([]domain.ActivityEntry, size)}
}

// Add records the outcome of res.
func (a *ActivityLog) Add(res domain.Result) {
	if a == nil {
		return
	}
	entry := domain.ActivityEntry{
		RequestID: res.RequestID,
		Outcome:   res.Outcome,
		Reason:    res.Reason,
		SizeMB:    res.SizeMB,
		Duration:  res.Duration,
		At:        time.Now(),
	}

	a.mu.Lock()
	a.entries[a.head] = entry
	a.head = (a.head + 1) % len(a.entries)
	if a.count < len(a.entries) {
		a.count++
	}
	a.mu.Unlock()
}

// Recent returns up to limit entries, newest first. limit <= 0 means all.
func (a *ActivityLog) Recent(limit int) []domain.ActivityEntry {
	if a == nil {
		return []domain.ActivityEntry{}
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if limit <= 0 || limit > a.count {
		limit = a.count
	}
	out := make([]domain.ActivityEntry, 0, limit)
	for i := 0; i < limit; i++ {
		// Read backwards from head-1.
		idx := (a.head - 1 - i + len(a.entries)) % len(a.entries)
		out = append(out, a.entries[idx])
	}
	return out
}

// Counts tallies the retained entries by outcome.
func (a *ActivityLog) Counts() map[domain.Outcome]int {
	counts := make(map[domain.Outcome]int)
	if a == nil {
		return counts
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	for i := 0; i < a.count; i++ {
		idx := (a.head - 1 - i + len(a.entries)) % len(a.entries)
		counts[a.entries[idx].Outcome]++
	}
	return counts
}
