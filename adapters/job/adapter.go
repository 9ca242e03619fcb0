package printjob

import (
	"context"
	"fmt"
	"time"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	job "github.com/goliatone/go-job"
)

// Enqueuer delivers execution messages to go-job.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg *job.ExecutionMessage) error
}

// EnqueuerFunc adapts a function to an Enqueuer.
type EnqueuerFunc func(ctx context.Context, msg *job.ExecutionMessage) error

func (f EnqueuerFunc) Enqueue(ctx context.Context, msg *job.ExecutionMessage) error {
	if f == nil {
		return blueprint.NewError(blueprint.KindInternal, "enqueuer is nil", nil)
	}
	return f(ctx, msg)
}

// Config configures the go-job cleanup scheduler.
type Config struct {
	Enqueuer Enqueuer
	TaskID   string
	TaskPath string
	Config   job.Config
	Logger   blueprint.Logger

	// DedupWindow coalesces sweep requests landing in the same window.
	// Zero disables deduplication.
	DedupWindow time.Duration

	// Now is the clock, defaults to time.Now.
	Now func() time.Time
}

// Scheduler enqueues artifact cleanup jobs.
type Scheduler struct {
	enqueuer    Enqueuer
	taskID      string
	taskPath    string
	config      job.Config
	logger      blueprint.Logger
	dedupWindow time.Duration
	now         func() time.Time
}

// NewScheduler creates a new job scheduler adapter.
func NewScheduler(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = blueprint.NopLogger{}
	}
	taskID := cfg.TaskID
	if taskID == "" {
		taskID = DefaultCleanupTaskID
	}
	taskPath := cfg.TaskPath
	if taskPath == "" {
		taskPath = DefaultCleanupTaskPath
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Scheduler{
		enqueuer:    cfg.Enqueuer,
		taskID:      taskID,
		taskPath:    taskPath,
		config:      cfg.Config,
		logger:      logger,
		dedupWindow: cfg.DedupWindow,
		now:         now,
	}
}

// RequestCleanup enqueues a sweep of artifacts expired at before. A zero
// before uses the scheduler's clock.
func (s *Scheduler) RequestCleanup(ctx context.Context, before time.Time) error {
	if s == nil {
		return blueprint.NewError(blueprint.KindInternal, "scheduler is nil", nil)
	}
	if s.enqueuer == nil {
		return blueprint.NewError(blueprint.KindNotImpl, "job enqueuer not configured", nil)
	}

	if before.IsZero() {
		before = s.now()
	}

	msg, err := s.buildMessage(before)
	if err != nil {
		return err
	}

	if err := s.enqueuer.Enqueue(ctx, msg); err != nil {
		s.logger.Errorf("cleanup enqueue failed: %v", err)
		return err
	}
	s.logger.Debugf("cleanup enqueued for %s", before.UTC().Format(time.RFC3339))
	return nil
}

// MessageBuilder returns a builder for cron execution paths, sweeping at
// the scheduler's clock on each run.
func (s *Scheduler) MessageBuilder() MessageBuilderFunc {
	return func(ctx context.Context) (*job.ExecutionMessage, error) {
		_ = ctx
		if s == nil {
			return nil, blueprint.NewError(blueprint.KindInternal, "scheduler is nil", nil)
		}
		return s.buildMessage(s.now())
	}
}

func (s *Scheduler) buildMessage(before time.Time) (*job.ExecutionMessage, error) {
	encoded, err := encodePayload(Payload{Before: before})
	if err != nil {
		return nil, err
	}

	msg := &job.ExecutionMessage{
		JobID:      s.taskID,
		ScriptPath: s.taskPath,
		Config:     s.config,
		Parameters: map[string]any{"payload": encoded},
	}

	if s.dedupWindow > 0 {
		bucket := before.UTC().Truncate(s.dedupWindow)
		msg.IdempotencyKey = fmt.Sprintf("%s:%d", s.taskID, bucket.UnixMilli())
		msg.DedupPolicy = job.DedupPolicyMerge
	}
	return msg, nil
}
