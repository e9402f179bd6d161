// Package scheduler provides background workers that run beside the HTTP server
package scheduler

import (
	"context"
	"log"
	"time"

	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
)

// HandoffRetryScheduler periodically resends broker handoff emails that failed
// to deliver. The handoff itself is already committed when the email fails, so
// the worker only touches the notification side.
type HandoffRetryScheduler struct {
	forwarding businessflow.ForwardingFlow
	logger     *log.Logger
	interval   time.Duration
}

func NewHandoffRetryScheduler(forwarding businessflow.ForwardingFlow, logger *log.Logger, interval time.Duration) *HandoffRetryScheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}

	return &HandoffRetryScheduler{
		forwarding: forwarding,
		logger:     logger,
		interval:   interval,
	}
}

// Start launches the retry loop. The returned cancel function stops it.
func (s *HandoffRetryScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *HandoffRetryScheduler) runOnce(ctx context.Context) {
	pending := len(s.forwarding.PendingHandoffs())
	if pending == 0 {
		return
	}

	delivered := s.forwarding.RetryFailedHandoffs(ctx)
	s.logger.Printf("scheduler: retried %d failed handoff emails, %d delivered", pending, delivered)
}
