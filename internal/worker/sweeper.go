package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExpirySweeper is satisfied by the auth service.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context) int64
}

// Sweeper periodically removes expired server-side credentials.
type Sweeper struct {
	target   ExpirySweeper
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper builds a sweeper. A non-positive interval disables it.
func NewSweeper(target ExpirySweeper, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{target: target, interval: interval, logger: logger.Named("sweeper")}
}

// Start launches the sweep loop. Calling Start twice is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	if s == nil || s.target == nil || s.interval <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
	s.logger.Info("credential sweeper started", zap.Duration("interval", s.interval))
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("credential sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.target.SweepExpired(ctx); removed > 0 {
				s.logger.Info("expired credentials removed", zap.Int64("count", removed))
			}
		}
	}
}
