package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// SessionInactivityTimeout is how long a session may sit idle before auto-logout
	SessionInactivityTimeout = 30 * time.Minute
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Workflow constants
const (
	// OutreachNotesMaxLen is the cap on call attempt notes; longer notes are truncated, not rejected
	OutreachNotesMaxLen = 500

	// MessageBodyMaxLen is the cap on patient thread messages; longer bodies are rejected
	MessageBodyMaxLen = 1000

	// HandoffRecentAttempts is how many recent call attempts the broker handoff email includes
	HandoffRecentAttempts = 5

	// ReportCacheTTL is how long precomputed report snapshots stay valid in redis
	ReportCacheTTL = 5 * time.Minute

	// NotificationTimeout bounds a single email dispatch attempt
	NotificationTimeout = 10 * time.Second
)
