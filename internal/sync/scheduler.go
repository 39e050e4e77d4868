package sync

import (
	"github.com/roylee0704/gron"

	"habitd/internal/providers"
	"habitd/internal/structures"
)

// Scheduler fires periodic sync attempts on a fixed interval,
// independent of the mutation-driven debounce.
type Scheduler struct {
	config  *structures.Config
	logger  providers.Logger
	trigger *Trigger
	cron    *gron.Cron
}

func NewScheduler(config *structures.Config, logger providers.Logger, trigger *Trigger) *Scheduler {
	return &Scheduler{
		config:  config,
		logger:  logger,
		trigger: trigger,
	}
}

func (s *Scheduler) Init() {
	if !s.config.Sync.Enabled || s.config.Sync.Interval <= 0 {
		s.logger.Infof(providers.TypeSync, "periodic sync disabled")
		return
	}

	s.cron = gron.New()
	s.cron.AddFunc(gron.Every(s.config.Sync.Interval), func() {
		s.trigger.Attempt("interval")
	})
	s.cron.Start()
	s.logger.Infof(providers.TypeSync, "periodic sync every %s", s.config.Sync.Interval)
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	s.trigger.Stop()
}
