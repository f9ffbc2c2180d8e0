package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
)

// SessionJanitor prunes stored sessions, and their responses, once their
// generation time is older than the TTL.
type SessionJanitor struct {
	repo     application.PaymentRepository
	interval time.Duration
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewSessionJanitor(
	repo application.PaymentRepository,
	interval time.Duration,
	ttl time.Duration,
	logger *slog.Logger,
) *SessionJanitor {
	return &SessionJanitor{
		repo:     repo,
		interval: interval,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs a sweep immediately and then on every tick until ctx is done.
func (w *SessionJanitor) Start(ctx context.Context) {
	w.logger.Info("session janitor started", "interval", w.interval, "session_ttl", w.ttl)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if _, err := w.Sweep(ctx); err != nil {
		w.logger.Error("session sweep failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("session janitor stopping")
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				w.logger.Error("session sweep failed", "error", err)
			}
		}
	}
}

// Sweep deletes every session generated before now minus the TTL and
// returns how many were removed.
func (w *SessionJanitor) Sweep(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.ttl)

	deleted, err := w.repo.DeletePaymentSessionsGeneratedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		w.logger.Info("pruned expired payment sessions",
			"deleted", deleted,
			"cutoff", cutoff)
	}
	return deleted, nil
}
