package tasks

import (
	"fmt"
	"time"

	"ahgapi/internal/utils/logger"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

// Scheduler handles periodic task scheduling
type Scheduler struct {
	scheduler *asynq.Scheduler
	logger    *logger.Logger
}

// NewScheduler creates a new task scheduler
func NewScheduler(redisAddr, username, password string, db int, logger *logger.Logger) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Username: username,
			Password: password,
			DB:       db,
		},
		&asynq.SchedulerOpts{},
	)

	return &Scheduler{
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if err := s.registerTasks(); err != nil {
		return fmt.Errorf("failed to register tasks: %w", err)
	}

	s.logger.Info("starting task scheduler")
	return s.scheduler.Run()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
	s.logger.Info("task scheduler stopped")
}

// periodicEntry describes one recurring job on the scheduler.
type periodicEntry struct {
	spec     string
	taskType string
	queue    string
}

// periodicEntries lists the recurring jobs. Embargo and
// declassification timers run hourly; scans and cleanup run daily.
func periodicEntries() []periodicEntry {
	return []periodicEntry{
		{"@hourly", TaskTypeEmbargoRelease, QueueCritical},
		{"@hourly", TaskTypeDeclassify, QueueCritical},
		{"0 6 * * *", TaskTypeClearanceScan, QueueLow},
		{"0 3 * * *", TaskTypeShareCleanup, QueueLow},
		{"0 7 * * *", TaskTypeDsarReminder, QueueLow},
		{"0 7 * * 1", TaskTypeConditionDue, QueueLow},
	}
}

// registerTasks registers all periodic tasks, rejecting any entry whose
// cron spec does not parse before it reaches the scheduler.
func (s *Scheduler) registerTasks() error {
	for _, entry := range periodicEntries() {
		schedule, err := cron.ParseStandard(entry.spec)
		if err != nil {
			return fmt.Errorf("bad schedule %q for %s: %w", entry.spec, entry.taskType, err)
		}

		task := asynq.NewTask(entry.taskType, nil)
		entryID, err := s.scheduler.Register(entry.spec, task,
			asynq.Queue(entry.queue),
			asynq.MaxRetry(RetryDefault),
			asynq.Timeout(TimeoutMedium))
		if err != nil {
			return fmt.Errorf("failed to register %s: %w", entry.taskType, err)
		}
		s.logger.Info("registered periodic task %s %s %s, next run %s",
			entry.taskType, entry.spec, entryID,
			schedule.Next(time.Now()).Format(time.RFC3339))
	}

	return nil
}

// RegisterCustomTask registers a custom periodic task
func (s *Scheduler) RegisterCustomTask(spec string, taskType string, payload []byte, opts ...asynq.Option) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("bad schedule %q: %w", spec, err)
	}

	entryID, err := s.scheduler.Register(spec, asynq.NewTask(taskType, payload, opts...))
	if err != nil {
		return fmt.Errorf("failed to register custom task: %w", err)
	}

	s.logger.Info("registered custom task %s %s %s", taskType, spec, entryID)
	return nil
}
