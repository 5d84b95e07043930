// Package scheduler provides cron-based job scheduling for reminder and
// broadcast passes.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler provides cron-based job scheduling.
type Scheduler struct {
	cron *cron.Cron
}

// Opts holds the optional scheduler configuration.
type Opts struct {
	Location *time.Location
}

// Option configures the scheduler.
type Option func(*Opts)

// WithLocation sets the timezone cron expressions are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(o *Opts) { o.Location = loc }
}

// NewScheduler creates and starts a cron scheduler.
func NewScheduler(opts ...Option) *Scheduler {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	// Standard 5-field cron parser (min, hour, dom, month, dow) with panic recovery
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	options := []cron.Option{
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	}
	if cfg.Location != nil {
		options = append(options, cron.WithLocation(cfg.Location))
	}
	c := cron.New(options...)
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules a task using the provided cron expression.
// It returns an error if the expression is invalid.
func (s *Scheduler) AddJob(expr string, task func()) error {
	_, err := s.cron.AddFunc(expr, task)
	return err
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
