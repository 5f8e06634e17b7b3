package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingSweeper struct {
	calls atomic.Int64
}

func (c *countingSweeper) SweepExpired(context.Context) int64 {
	c.calls.Add(1)
	return 1
}

func TestSweeperRunsUntilStopped(t *testing.T) {
	target := &countingSweeper{}
	sweeper := NewSweeper(target, 5*time.Millisecond, zap.NewNop())

	sweeper.Start(context.Background())
	sweeper.Start(context.Background())

	assert.Eventually(t, func() bool { return target.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	sweeper.Stop()
	after := target.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, target.calls.Load(), "no sweeps after Stop")

	sweeper.Stop()
}

func TestSweeperStopsWithContext(t *testing.T) {
	target := &countingSweeper{}
	sweeper := NewSweeper(target, time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	sweeper.Start(ctx)
	cancel()
	sweeper.Stop()
}

func TestSweeperDisabled(t *testing.T) {
	target := &countingSweeper{}
	sweeper := NewSweeper(target, 0, zap.NewNop())

	sweeper.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	sweeper.Stop()

	assert.Zero(t, target.calls.Load())
}
