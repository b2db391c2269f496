package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers refreshes once after a startup delay and then on a cron
// schedule. An empty cron spec leaves only the startup run.
type Scheduler struct {
	cron         *cron.Cron
	refresher    *Refresher
	startupDelay time.Duration
	startupTimer *time.Timer
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.Mutex
	stopped      bool
}

func NewScheduler(spec string, startupDelay time.Duration, location *time.Location, refresher *Refresher) (*Scheduler, error) {
	if location == nil {
		location = time.UTC
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:         cron.New(cron.WithLocation(location)),
		refresher:    refresher,
		startupDelay: startupDelay,
		ctx:          ctx,
		cancel:       cancel,
	}

	if spec != "" {
		if _, err := s.cron.AddFunc(spec, func() { s.run(TriggerScheduled) }); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
		}
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()

	s.mu.Lock()
	s.startupTimer = time.AfterFunc(s.startupDelay, func() { s.run(TriggerStartup) })
	s.mu.Unlock()

	slog.Debug("Scheduler started", "startup_delay", s.startupDelay, "jobs", len(s.cron.Entries()))
}

// Stop cancels a running refresh and waits for scheduled jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	if s.startupTimer != nil {
		s.startupTimer.Stop()
	}
	s.mu.Unlock()

	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *Scheduler) run(trigger Trigger) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	_, err := s.refresher.Refresh(s.ctx, trigger)
	if errors.Is(err, ErrRefreshInProgress) {
		slog.Debug("Refresh already running, skipping", "trigger", string(trigger))
	}
}
