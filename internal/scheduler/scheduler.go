package scheduler

import (
	"context"
	"time"

	"ica/internal/logger"
)

// IntervalScheduler runs a task on a fixed cadence until the context is done.
type IntervalScheduler struct {
	Name           string
	Interval       time.Duration
	RunImmediately bool

	ctx context.Context
}

func NewIntervalScheduler(ctx context.Context, name string, interval time.Duration) *IntervalScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &IntervalScheduler{Name: name, Interval: interval, ctx: ctx}
}

// Start blocks, invoking task every Interval. A panicking task is logged and
// does not stop the schedule.
func (s *IntervalScheduler) Start(task func(ctx context.Context)) {
	if s == nil {
		return
	}
	if task == nil {
		logger.Warnf("IntervalScheduler[%s]: task is nil, exit", s.Name)
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("IntervalScheduler[%s]: invalid interval=%s, exit", s.Name, s.Interval)
		return
	}

	logger.Infof("IntervalScheduler[%s]: started interval=%s run_immediately=%v", s.Name, s.Interval, s.RunImmediately)
	if s.RunImmediately {
		s.runOnce(task)
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			logger.Infof("IntervalScheduler[%s]: ctx done, exit", s.Name)
			return
		case <-ticker.C:
			s.runOnce(task)
		}
	}
}

func (s *IntervalScheduler) runOnce(task func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("IntervalScheduler[%s]: task panic: %v", s.Name, r)
		}
	}()
	task(s.ctx)
}
