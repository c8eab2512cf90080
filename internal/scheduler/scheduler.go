// Package scheduler drives the game's periodic work: the world-boss
// retaliation tick and the regen/expiry maintenance sweep. It owns no game
// rules; each tick just calls into the command service.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/juancoutinhoflooxmongagua/OutlawRpg/internal/command"
)

// Ticker is one named periodic job.
type Ticker struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs a set of periodic jobs until stopped.
//
// Invariant: each job runs at most once per interval and never concurrently
// with itself.
type Scheduler struct {
	log     *zap.Logger
	tickers []Ticker

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Scheduler with the standard game jobs wired to svc.
//
// Precondition: svc and log must be non-nil; intervals must be > 0.
func New(svc *command.Service, log *zap.Logger, bossInterval, sweepInterval time.Duration) *Scheduler {
	return &Scheduler{
		log: log,
		tickers: []Ticker{
			{
				Name:     "boss_tick",
				Interval: bossInterval,
				Run: func(ctx context.Context) error {
					_, err := svc.RunBossTick(ctx)
					return err
				},
			},
			{
				Name:     "maintenance_sweep",
				Interval: sweepInterval,
				Run:      svc.RunSweep,
			},
		},
	}
}

// Start launches one goroutine per job. Errors are logged; a failing tick
// does not stop its job.
//
// Postcondition: Stop must be called to release the goroutines.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, t := range s.tickers {
		s.wg.Add(1)
		go s.run(ctx, t)
	}
	s.log.Info("scheduler started", zap.Int("jobs", len(s.tickers)))
	return nil
}

func (s *Scheduler) run(ctx context.Context, t Ticker) {
	defer s.wg.Done()
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.Run(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("periodic job failed", zap.String("job", t.Name), zap.Error(err))
			}
		}
	}
}

// Stop cancels the jobs and waits for in-flight ticks to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
