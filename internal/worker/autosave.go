package worker

import (
	"context"
	"time"

	"cablebill/internal/log"
)

// DefaultAutosaveInterval is used when no interval is configured.
const DefaultAutosaveInterval = 30 * time.Second

// shutdownFlushTimeout bounds the final flush after cancellation.
const shutdownFlushTimeout = 10 * time.Second

// Flusher persists in-memory state.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Autosaver flushes on a fixed interval and once more when stopped.
type Autosaver struct {
	flusher  Flusher
	interval time.Duration
	logger   *log.Logger
}

func NewAutosaver(f Flusher, interval time.Duration, logger *log.Logger) *Autosaver {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Autosaver{flusher: f, interval: interval, logger: logger.WithComponent(log.ComponentWorker)}
}

// Run blocks until ctx is cancelled.
func (a *Autosaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.InfoContext(ctx, "Autosave started", "interval", a.interval)
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
			a.flush(flushCtx)
			cancel()
			a.logger.Info("Autosave stopped")
			return
		case <-ticker.C:
			a.flush(ctx)
		}
	}
}

func (a *Autosaver) flush(ctx context.Context) {
	if err := a.flusher.Flush(ctx); err != nil {
		a.logger.ErrorContext(ctx, "Autosave failed",
			log.FieldOperation, log.OpSave,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypePersistence)
		return
	}
	a.logger.DebugContext(ctx, "Autosave completed")
}
