package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"nexlyon/server/internal/pipeline"
)

// Runner starts a pipeline run in the background and returns its id.
type Runner interface {
	Start(ctx context.Context) (string, error)
}

// Scheduler triggers pipeline runs on a cron expression
type Scheduler struct {
	runner Runner
	expr   string
	logger *logrus.Logger
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
}

// NewScheduler creates a new scheduler. An empty expression disables it.
func NewScheduler(runner Runner, expr string, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner: runner,
		expr:   expr,
		logger: logger,
		cron:   cron.New(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Enabled reports whether a cron expression is configured.
func (s *Scheduler) Enabled() bool {
	return s.expr != ""
}

// Start registers the job and begins the scheduled tasks
func (s *Scheduler) Start() error {
	if !s.Enabled() {
		s.logger.Info("No schedule configured, runs are only triggered through the API")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	if _, err := s.cron.AddFunc(s.expr, s.runJob); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	s.cron.Start()
	s.started = true

	s.logger.WithField("cron", s.expr).Info("Scheduler started")
	return nil
}

func (s *Scheduler) runJob() {
	runID, err := s.runner.Start(s.ctx)
	switch {
	case errors.Is(err, pipeline.ErrAlreadyRunning):
		s.logger.Info("Skipping scheduled run, pipeline already running")
	case err != nil:
		s.logger.WithError(err).Error("Scheduled run failed to start")
	default:
		s.logger.WithField("run_id", runID).Info("Scheduled run started")
	}
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	if started {
		<-s.cron.Stop().Done()
	}
	s.cancel()
}
