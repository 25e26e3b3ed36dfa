package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IdleEvictor removes drafts that have not been touched for idleFor and
// reports how many it removed
type IdleEvictor interface {
	EvictIdle(ctx context.Context, idleFor time.Duration) int
}

// DraftJanitorConfig holds configuration for the draft janitor
type DraftJanitorConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// DefaultDraftJanitorConfig returns default configuration
func DefaultDraftJanitorConfig() DraftJanitorConfig {
	return DraftJanitorConfig{
		IdleTTL:       2 * time.Hour,
		SweepInterval: 5 * time.Minute,
	}
}

// DraftJanitor periodically evicts idle in-memory drafts
type DraftJanitor struct {
	config DraftJanitorConfig
	drafts IdleEvictor
	logger *zap.Logger

	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
	isRunning    bool
	lastSweep    time.Time
	evictedCount int
}

// NewDraftJanitor creates a new draft janitor
func NewDraftJanitor(config DraftJanitorConfig, drafts IdleEvictor, logger *zap.Logger) *DraftJanitor {
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultDraftJanitorConfig().SweepInterval
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = DefaultDraftJanitorConfig().IdleTTL
	}
	return &DraftJanitor{
		config: config,
		drafts: drafts,
		logger: logger,
	}
}

// Start begins the sweep loop
func (j *DraftJanitor) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.isRunning {
		j.mu.Unlock()
		return fmt.Errorf("draft janitor already running")
	}

	j.ctx, j.cancel = context.WithCancel(ctx)
	j.done = make(chan struct{})
	j.isRunning = true
	j.mu.Unlock()

	j.logger.Info("DraftJanitor started",
		zap.Duration("idle_ttl", j.config.IdleTTL),
		zap.Duration("sweep_interval", j.config.SweepInterval))

	go j.sweepLoop()

	return nil
}

// Stop terminates the sweep loop and waits for it to exit
func (j *DraftJanitor) Stop() error {
	j.mu.Lock()
	if !j.isRunning {
		j.mu.Unlock()
		return nil
	}
	j.isRunning = false
	cancel, done := j.cancel, j.done
	j.mu.Unlock()

	cancel()
	<-done

	j.logger.Info("DraftJanitor stopped", zap.Int("evicted_count", j.EvictedCount()))
	return nil
}

// Name returns the worker name for identification
func (j *DraftJanitor) Name() string {
	return "DraftJanitor"
}

// Sweep evicts idle drafts once
func (j *DraftJanitor) Sweep(ctx context.Context) int {
	n := j.drafts.EvictIdle(ctx, j.config.IdleTTL)

	j.mu.Lock()
	j.lastSweep = time.Now()
	j.evictedCount += n
	j.mu.Unlock()

	if n > 0 {
		j.logger.Debug("Idle drafts evicted", zap.Int("count", n))
	}
	return n
}

// EvictedCount returns the number of drafts evicted since creation
func (j *DraftJanitor) EvictedCount() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.evictedCount
}

// LastSweep returns when the last sweep finished
func (j *DraftJanitor) LastSweep() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.lastSweep
}

func (j *DraftJanitor) sweepLoop() {
	defer close(j.done)

	ticker := time.NewTicker(j.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			j.Sweep(j.ctx)
		}
	}
}
