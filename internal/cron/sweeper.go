package cronjob

import (
	"context"
	"time"

	"github.com/davinci-studio/studio-backend/internal/logging"
	"github.com/robfig/cron/v3"
)

// IdleSweeper drops entries unused for longer than maxIdle and reports how
// many it dropped
type IdleSweeper interface {
	SweepIdle(maxIdle time.Duration) int
}

type target struct {
	name    string
	sweeper IdleSweeper
	maxIdle time.Duration
}

// Sweeper periodically evicts idle in-memory state: abandoned editor
// sessions and cached session galleries
type Sweeper struct {
	targets []target
	cron    *cron.Cron
}

func NewSweeper() *Sweeper {
	return &Sweeper{cron: cron.New(cron.WithSeconds())}
}

// Add registers a target. A non-positive maxIdle disables it.
func (s *Sweeper) Add(name string, sweeper IdleSweeper, maxIdle time.Duration) *Sweeper {
	if maxIdle > 0 {
		s.targets = append(s.targets, target{name: name, sweeper: sweeper, maxIdle: maxIdle})
	}
	return s
}

// Start schedules the sweep job (every minute, on the minute)
func (s *Sweeper) Start() error {
	logger := logging.NewLogger(context.Background())

	if _, err := s.cron.AddFunc("0 * * * * *", s.Run); err != nil {
		logger.LogError("sweeper", err)
		return err
	}

	for _, t := range s.targets {
		logger.LogInfof("sweeper", "target=%s max_idle=%s", t.name, t.maxIdle)
	}
	s.cron.Start()
	return nil
}

// Run performs one sweep over every target
func (s *Sweeper) Run() {
	for _, t := range s.targets {
		if n := t.sweeper.SweepIdle(t.maxIdle); n > 0 {
			logging.NewLogger(context.Background()).LogInfof("sweeper", "target=%s evicted=%d", t.name, n)
		}
	}
}

// Stop halts scheduling and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
