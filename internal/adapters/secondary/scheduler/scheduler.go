package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// Purger removes expired edit sessions
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// Scheduler runs periodic maintenance jobs on top of gocron
type Scheduler struct {
	scheduler gocron.Scheduler
	clock     ports.TimeProvider
	logger    ports.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a scheduler. Jobs do not run until Start is called.
func New(clock ports.TimeProvider, logger ports.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	if clock == nil {
		clock = ports.NewRealTimeProvider()
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		clock:     clock,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// SchedulePurge runs purger every interval, starting immediately. Runs of
// the same job never overlap.
func (s *Scheduler) SchedulePurge(name string, interval time.Duration, purger Purger) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.purge, name, purger),
		gocron.WithName(name+"-purge"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("creating %s purge job: %w", name, err)
	}

	return job.ID().String(), nil
}

func (s *Scheduler) purge(name string, purger Purger) {
	n, err := purger.PurgeExpired(s.ctx, s.clock.Now())
	if err != nil {
		s.logger.Error("purging expired %s sessions: %v", name, err)
		return
	}
	if n > 0 {
		s.logger.Debug("purge job %s removed %d sessions", name, n)
	}
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler with %d jobs", len(s.scheduler.Jobs()))
	s.scheduler.Start()
}

// Stop cancels running jobs and shuts the scheduler down
func (s *Scheduler) Stop() error {
	s.cancel()
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("stopping scheduler: %w", err)
	}
	return nil
}
