package worker

import (
	"context"
	"time"

	"cablebill/internal/log"
)

// DefaultProbeInterval is the retry period while the sync server is down.
const DefaultProbeInterval = 30 * time.Second

// SyncEnabler attempts to reach the sync server and reconcile with it.
type SyncEnabler interface {
	CheckAndEnable(ctx context.Context) bool
}

// SyncProbe retries CheckAndEnable on an interval until the server answers
// once, then stops.
type SyncProbe struct {
	syncer   SyncEnabler
	interval time.Duration
	logger   *log.Logger
}

func NewSyncProbe(s SyncEnabler, interval time.Duration, logger *log.Logger) *SyncProbe {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncProbe{syncer: s, interval: interval, logger: logger.WithComponent(log.ComponentWorker)}
}

// Run returns true once the server was reached, or false when ctx ends first.
func (p *SyncProbe) Run(ctx context.Context) bool {
	if p.syncer.CheckAndEnable(ctx) {
		return true
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if p.syncer.CheckAndEnable(ctx) {
				p.logger.InfoContext(ctx, "Sync server reachable, initial sync done")
				return true
			}
		}
	}
}
