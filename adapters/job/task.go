package printjob

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	printcmd "github.com/HMC-Makerspace/BLUEPRINT/command"
	"github.com/goliatone/go-command/dispatcher"
	errorslib "github.com/goliatone/go-errors"
	job "github.com/goliatone/go-job"
)

const (
	DefaultCleanupTaskID   = "print:cleanup"
	DefaultCleanupTaskPath = "print:cleanup"
)

var (
	backoffRand   = rand.New(rand.NewSource(time.Now().UnixNano()))
	backoffRandMu sync.Mutex
)

var errExecutionSkipped = errors.New("cleanup execution skipped")

// Payload captures the job execution input. A zero Before sweeps at the
// handler's clock.
type Payload struct {
	Before time.Time `json:"before,omitempty"`
}

// MessageBuilderFunc builds an execution message for non-queue paths.
type MessageBuilderFunc func(ctx context.Context) (*job.ExecutionMessage, error)

// CleanupDispatch dispatches an artifact cleanup command.
type CleanupDispatch func(ctx context.Context, msg printcmd.CleanupArtifacts) error

// TaskConfig configures the artifact cleanup task.
type TaskConfig struct {
	ID             string
	Path           string
	Config         job.Config
	HandlerOptions job.HandlerOptions
	RetryPolicy    RetryPolicy
	Logger         blueprint.Logger
	Dispatch       CleanupDispatch
	MessageBuilder MessageBuilderFunc
}

// CleanupTask executes artifact cleanup jobs.
type CleanupTask struct {
	id             string
	path           string
	config         job.Config
	handlerOptions job.HandlerOptions
	retryPolicy    RetryPolicy
	logger         blueprint.Logger
	dispatch       CleanupDispatch
	messageBuilder MessageBuilderFunc
}

// NewCleanupTask creates a new artifact cleanup task.
func NewCleanupTask(cfg TaskConfig) *CleanupTask {
	logger := cfg.Logger
	if logger == nil {
		logger = blueprint.NopLogger{}
	}
	id := cfg.ID
	if id == "" {
		id = DefaultCleanupTaskID
	}
	path := cfg.Path
	if path == "" {
		path = DefaultCleanupTaskPath
	}
	dispatch := cfg.Dispatch
	if dispatch == nil {
		dispatch = func(ctx context.Context, msg printcmd.CleanupArtifacts) error {
			return dispatcher.Dispatch(ctx, msg)
		}
	}

	return &CleanupTask{
		id:             id,
		path:           path,
		config:         cfg.Config,
		handlerOptions: cfg.HandlerOptions,
		retryPolicy:    cfg.RetryPolicy,
		logger:         logger,
		dispatch:       dispatch,
		messageBuilder: cfg.MessageBuilder,
	}
}

// GetID returns the task identifier.
func (t *CleanupTask) GetID() string { return t.id }

// GetHandler returns a handler for non-queue execution paths.
func (t *CleanupTask) GetHandler() func() error {
	return func() error {
		if t == nil {
			return blueprint.NewError(blueprint.KindInternal, "task is nil", nil)
		}
		if t.messageBuilder == nil {
			return blueprint.NewError(blueprint.KindNotImpl, "job message builder not configured", nil)
		}

		ctx := context.Background()
		msg, err := t.messageBuilder(ctx)
		if err != nil {
			if errors.Is(err, errExecutionSkipped) {
				return nil
			}
			return err
		}
		if msg == nil {
			return blueprint.NewError(blueprint.KindValidation, "execution message is required", nil)
		}
		return t.Execute(ctx, msg)
	}
}

// GetHandlerConfig returns scheduler options for the task.
func (t *CleanupTask) GetHandlerConfig() job.HandlerOptions { return t.handlerOptions }

// GetConfig returns task config defaults.
func (t *CleanupTask) GetConfig() job.Config { return t.config }

// GetPath returns the task path.
func (t *CleanupTask) GetPath() string { return t.path }

// GetEngine returns nil because this task is code-driven.
func (t *CleanupTask) GetEngine() job.Engine { return nil }

// Execute runs artifact cleanup for the provided payload.
func (t *CleanupTask) Execute(ctx context.Context, msg *job.ExecutionMessage) error {
	if t == nil {
		return blueprint.NewError(blueprint.KindInternal, "task is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	payload, err := decodePayload(msg)
	if err != nil {
		return err
	}

	policy := t.retryPolicy
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		cmd := printcmd.CleanupArtifacts{Now: payload.Before}
		err := t.dispatch(ctx, cmd)
		if err == nil {
			return nil
		}

		if !policy.shouldRetry(err) || attempt >= policy.MaxRetries {
			return err
		}

		attempt++
		delay := policy.backoffDelay(attempt)
		if delay > 0 {
			if serr := sleepWithContext(ctx, delay); serr != nil {
				return serr
			}
		}
	}
}

func encodePayload(payload Payload) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, blueprint.NewError(blueprint.KindValidation, "payload is not serializable", err)
	}
	return json.RawMessage(raw), nil
}

// decodePayload tolerates a missing payload: cleanup without input sweeps
// at the handler's clock.
func decodePayload(msg *job.ExecutionMessage) (Payload, error) {
	if msg == nil {
		return Payload{}, blueprint.NewError(blueprint.KindValidation, "execution message is required", nil)
	}
	if msg.Parameters == nil {
		return Payload{}, nil
	}

	raw, ok := msg.Parameters["payload"]
	if !ok {
		return Payload{}, nil
	}

	switch value := raw.(type) {
	case Payload:
		return value, nil
	case *Payload:
		if value == nil {
			return Payload{}, nil
		}
		return *value, nil
	case json.RawMessage:
		return unmarshalPayload(value)
	case []byte:
		return unmarshalPayload(value)
	case string:
		return unmarshalPayload([]byte(value))
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return Payload{}, blueprint.NewError(blueprint.KindValidation, "job payload is invalid", err)
		}
		return unmarshalPayload(data)
	}
}

func unmarshalPayload(data []byte) (Payload, error) {
	if len(data) == 0 {
		return Payload{}, nil
	}
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, blueprint.NewError(blueprint.KindValidation, "job payload is invalid", err)
	}
	return payload, nil
}

// RetryPolicy determines retry behavior for retryable errors.
type RetryPolicy struct {
	MaxRetries int
	Backoff    job.BackoffConfig
	Retryable  func(error) bool
}

func (p RetryPolicy) shouldRetry(err error) bool {
	if err == nil || p.MaxRetries <= 0 {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return defaultRetryable(err)
}

func (p RetryPolicy) backoffDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return computeBackoffDelay(attempt, p.Backoff)
}

func defaultRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errorslib.IsRetryableError(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var printErr *blueprint.PrintError
	if errors.As(err, &printErr) {
		switch printErr.Kind {
		case blueprint.KindTimeout, blueprint.KindInternal:
			return true
		}
	}
	return false
}

func computeBackoffDelay(attempt int, cfg job.BackoffConfig) time.Duration {
	if attempt <= 0 {
		return 0
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	maxInterval := cfg.MaxInterval
	if maxInterval <= 0 {
		maxInterval = 5 * time.Second
	}

	switch cfg.Strategy {
	case job.BackoffFixed:
		return applyJitter(interval, cfg.Jitter)
	case job.BackoffExponential:
		delay := interval
		for i := 1; i < attempt; i++ {
			delay *= 2
			if delay > maxInterval {
				delay = maxInterval
				break
			}
		}
		return applyJitter(delay, cfg.Jitter)
	default:
		return 0
	}
}

func applyJitter(delay time.Duration, jitter bool) time.Duration {
	if !jitter || delay <= 0 {
		return delay
	}
	// +/-50% jitter
	half := float64(delay) * 0.5
	backoffRandMu.Lock()
	offset := (backoffRand.Float64()*2 - 1) * half
	backoffRandMu.Unlock()
	jittered := float64(delay) + offset
	if jittered < 0 {
		return 0
	}
	return time.Duration(jittered)
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
