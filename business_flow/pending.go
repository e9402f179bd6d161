package businessflow

import (
	"sync"
	"time"
)

// PendingState tags an in-flight write that has been applied locally but not
// yet acknowledged by its downstream.
type PendingState string

const (
	// PendingStateProvisional means the write was issued and no response has
	// arrived yet.
	PendingStateProvisional PendingState = "provisional"
	// PendingStateConfirmed means the downstream acknowledged the write.
	PendingStateConfirmed PendingState = "confirmed"
	// PendingStateFailed means the downstream rejected the write or the
	// dispatch errored; the entry stays visible until resolved.
	PendingStateFailed PendingState = "failed"
)

// PendingEntry is one tracked write with its current reconciliation state.
type PendingEntry[T any] struct {
	Key       string
	Value     T
	State     PendingState
	UpdatedAt time.Time
	Err       error
}

// PendingSet tracks writes through the provisional -> confirmed/failed
// lifecycle. Confirmed entries are dropped on reconciliation; failed entries
// remain listed so a caller can retry or surface them for manual follow-up.
// Safe for concurrent use.
type PendingSet[T any] struct {
	mu      sync.RWMutex
	clock   func() time.Time
	entries map[string]*PendingEntry[T]
}

func NewPendingSet[T any]() *PendingSet[T] {
	return &PendingSet[T]{
		clock:   time.Now,
		entries: make(map[string]*PendingEntry[T]),
	}
}

// NewPendingSetWithClock is for tests that need a deterministic timestamp.
func NewPendingSetWithClock[T any](clock func() time.Time) *PendingSet[T] {
	s := NewPendingSet[T]()
	if clock != nil {
		s.clock = clock
	}
	return s
}

// Begin records a provisional write, replacing any previous entry under the
// same key.
func (s *PendingSet[T]) Begin(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &PendingEntry[T]{
		Key:       key,
		Value:     value,
		State:     PendingStateProvisional,
		UpdatedAt: s.clock(),
	}
}

// Confirm reconciles a provisional write against a successful response and
// removes it from the set.
func (s *PendingSet[T]) Confirm(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Fail marks a write as rejected. The entry stays in the set with the error
// attached until Resolve or a successful retry via Begin/Confirm.
func (s *PendingSet[T]) Fail(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return
	}
	e.State = PendingStateFailed
	e.Err = err
	e.UpdatedAt = s.clock()
}

// Resolve drops a failed entry after it has been handled out of band.
func (s *PendingSet[T]) Resolve(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Get returns the entry for key, if any.
func (s *PendingSet[T]) Get(key string) (PendingEntry[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return PendingEntry[T]{}, false
	}
	return *e, true
}

// List returns all tracked entries ordered oldest first.
func (s *PendingSet[T]) List() []PendingEntry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PendingEntry[T], 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].UpdatedAt.Before(out[j-1].UpdatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Failed returns only the entries that need attention.
func (s *PendingSet[T]) Failed() []PendingEntry[T] {
	all := s.List()
	out := all[:0]
	for _, e := range all {
		if e.State == PendingStateFailed {
			out = append(out, e)
		}
	}
	return out
}

// Len reports how many writes are currently tracked.
func (s *PendingSet[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
