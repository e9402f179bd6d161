package services

import (
	"sync"
	"time"

	"github.com/clearwater-medical/outreach-portal/utils"
)

// Clock abstracts time for the session tracker so expiry logic is testable
// without real timers
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return utils.UTCNow() }

// NewRealClock returns a Clock backed by the system time
func NewRealClock() Clock { return realClock{} }

// SessionTracker tracks per-user inactivity for auto-logout. Any user
// activity signal resets the idle window; a session with no activity for the
// full window is expired.
type SessionTracker struct {
	clock   Clock
	timeout time.Duration

	mu           sync.RWMutex
	lastActivity map[uint]time.Time
}

// NewSessionTracker creates a tracker with the given idle timeout
func NewSessionTracker(clock Clock, timeout time.Duration) *SessionTracker {
	if clock == nil {
		clock = realClock{}
	}
	if timeout <= 0 {
		timeout = utils.SessionInactivityTimeout
	}
	return &SessionTracker{
		clock:        clock,
		timeout:      timeout,
		lastActivity: make(map[uint]time.Time),
	}
}

// Touch records an activity signal for the user, resetting the idle window
func (t *SessionTracker) Touch(userID uint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastActivity[userID] = t.clock.Now()
}

// TimeRemaining returns how long until the user's session expires. A user
// with no recorded activity has no session and zero time remaining.
func (t *SessionTracker) TimeRemaining(userID uint) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	last, ok := t.lastActivity[userID]
	if !ok {
		return 0
	}
	remaining := t.timeout - t.clock.Now().Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsExpired reports whether the user's session has idled out
func (t *SessionTracker) IsExpired(userID uint) bool {
	return t.TimeRemaining(userID) <= 0
}

// End removes the user's session, used on explicit logout
func (t *SessionTracker) End(userID uint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastActivity, userID)
}

// Sweep drops every expired session and returns the user ids that idled out
func (t *SessionTracker) Sweep() []uint {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	var expired []uint
	for userID, last := range t.lastActivity {
		if now.Sub(last) >= t.timeout {
			expired = append(expired, userID)
			delete(t.lastActivity, userID)
		}
	}
	return expired
}
