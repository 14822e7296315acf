package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// staleEscalator is the part of ComplaintService the worker drives
type staleEscalator interface {
	EscalateStale(ctx context.Context, cutoff time.Time) (int, error)
}

// EscalationWorker periodically escalates complaints left open too long
type EscalationWorker struct {
	complaints staleEscalator
	after      time.Duration
	logger     *zap.SugaredLogger
	now        func() time.Time
}

// NewEscalationWorker creates a worker escalating complaints older than after
func NewEscalationWorker(complaints staleEscalator, after time.Duration, logger *zap.SugaredLogger) *EscalationWorker {
	return &EscalationWorker{complaints: complaints, after: after, logger: logger, now: time.Now}
}

// Start runs a sweep immediately and then on every tick until ctx is done
func (w *EscalationWorker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Escalation worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and returns the number escalated
func (w *EscalationWorker) RunOnce(ctx context.Context) int {
	cutoff := w.now().Add(-w.after)
	w.logger.Debugw("Sweeping stale complaints", "cutoff", cutoff.Format(dateLayout))

	n, err := w.complaints.EscalateStale(ctx, cutoff)
	if err != nil {
		w.logger.Errorw("Escalation sweep failed", "escalated", n, "error", err)
		return n
	}
	if n > 0 {
		w.logger.Infow("Escalation sweep complete", "escalated", n)
	}
	return n
}
