// Package scheduler runs the gateway's periodic jobs on a gocron
// scheduler.
package scheduler

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyJobName  = errors.New("job name is required")
	ErrEmptyCronExpr = errors.New("cron expression is required")
)

// Service wraps a gocron scheduler for app-wide scheduling.
type Service struct {
	scheduler gocron.Scheduler
	stopOnce  sync.Once
	stopErr   error
}

// New creates a scheduler whose jobs log instead of crash when they
// panic.
func New() (*Service, error) {
	sched, err := gocron.NewScheduler(
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					log.Error().
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("Scheduler job panicked")
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	return &Service{scheduler: sched}, nil
}

// Start begins running scheduled jobs.
func (s *Service) Start() {
	log.Info().Msg("Scheduler starting")
	s.scheduler.Start()
}

// Stop shuts down the scheduler and prevents new jobs from running.
func (s *Service) Stop() error {
	s.stopOnce.Do(func() {
		log.Info().Msg("Scheduler stopping")
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

// AddJob registers a cron-based job with the scheduler.
func (s *Service) AddJob(name, cronExpr string, task func()) (gocron.Job, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyJobName
	}
	if strings.TrimSpace(cronExpr) == "" {
		return nil, ErrEmptyCronExpr
	}

	job, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(task),
		gocron.WithName(name),
	)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("job_name", name).
		Str("cron", cronExpr).
		Msg("Scheduler job registered")
	return job, nil
}
