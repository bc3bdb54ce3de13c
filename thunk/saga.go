package thunk

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SagaStep is one step of a Saga: Execute does the work, Compensate (if
// set) undoes it if a later step fails, MaxRetries (total attempts,
// default 1) and RetryDelay (default 1s) control per-step retry. Directly
// grounded on the teacher's SagaStep.
type SagaStep struct {
	Name       string
	Execute    func(ctx context.Context, data any) (any, error)
	Compensate func(ctx context.Context, data any) error
	MaxRetries int
	RetryDelay time.Duration
}

// Saga composes several async thunks into one compensating unit: "create X,
// then Y, and undo X if Y fails" without hand-rolling nested thunks (spec
// §4.3 supplement, DESIGN.md). Grounded directly on
// application/sagas/saga.go's step execution, linear retry-with-delay, and
// reverse-order compensation.
type Saga struct {
	id            string
	name          string
	steps         []SagaStep
	compensations []func(ctx context.Context) error
	logger        *zap.Logger
}

// NewSaga creates a named saga. A nil logger is replaced with a no-op one.
func NewSaga(name string, logger *zap.Logger) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{id: uuid.NewString(), name: name, logger: logger}
}

// AddStep appends step, returning the saga for chaining.
func (s *Saga) AddStep(step SagaStep) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// ID returns the saga's generated identifier.
func (s *Saga) ID() string { return s.id }

// Run executes every step in order, feeding each step's result as the next
// step's data. If a step fails after exhausting its retries, Run
// compensates every completed step in reverse order and returns the
// original step's error.
func (s *Saga) Run(ctx context.Context, initialData any) (any, error) {
	s.logger.Info("saga starting", zap.String("sagaId", s.id), zap.String("name", s.name), zap.Int("steps", len(s.steps)))

	data := initialData
	completed := 0

	for i, step := range s.steps {
		result, err := s.runStepWithRetry(ctx, step, data)
		if err != nil {
			s.logger.Error("saga step failed", zap.String("sagaId", s.id), zap.String("step", step.Name), zap.Error(err))
			s.compensate(ctx, completed)
			return nil, fmt.Errorf("saga %q failed at step %q: %w", s.name, step.Name, err)
		}

		data = result
		completed = i + 1
		if step.Compensate != nil {
			stepData := data
			compensate := step.Compensate
			s.compensations = append(s.compensations, func(ctx context.Context) error {
				return compensate(ctx, stepData)
			})
		} else {
			s.compensations = append(s.compensations, nil)
		}
	}

	s.logger.Info("saga completed", zap.String("sagaId", s.id), zap.String("name", s.name))
	return data, nil
}

func (s *Saga) runStepWithRetry(ctx context.Context, step SagaStep, data any) (any, error) {
	maxRetries := step.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	retryDelay := step.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
		result, err := step.Execute(ctx, data)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("step %q failed after %d attempts: %w", step.Name, maxRetries, lastErr)
}

func (s *Saga) compensate(ctx context.Context, completed int) {
	s.logger.Info("saga compensating", zap.String("sagaId", s.id), zap.Int("steps", completed))
	for i := completed - 1; i >= 0; i-- {
		if i >= len(s.compensations) || s.compensations[i] == nil {
			continue
		}
		if err := s.compensations[i](ctx); err != nil {
			s.logger.Error("saga compensation failed", zap.String("sagaId", s.id), zap.Int("step", i), zap.Error(err))
		}
	}
}

// SagaBuilder provides a fluent interface for composing a Saga, matching
// the teacher's SagaBuilder.
type SagaBuilder struct {
	saga *Saga
}

// NewSagaBuilder starts a new Saga builder.
func NewSagaBuilder(name string, logger *zap.Logger) *SagaBuilder {
	return &SagaBuilder{saga: NewSaga(name, logger)}
}

// WithStep adds a plain step with no compensation or retry.
func (b *SagaBuilder) WithStep(name string, execute func(ctx context.Context, data any) (any, error)) *SagaBuilder {
	b.saga.AddStep(SagaStep{Name: name, Execute: execute})
	return b
}

// WithCompensableStep adds a step with undo logic run if a later step fails.
func (b *SagaBuilder) WithCompensableStep(name string, execute func(ctx context.Context, data any) (any, error), compensate func(ctx context.Context, data any) error) *SagaBuilder {
	b.saga.AddStep(SagaStep{Name: name, Execute: execute, Compensate: compensate})
	return b
}

// WithRetryableStep adds a step attempted up to maxRetries times in total,
// waiting retryDelay between attempts.
func (b *SagaBuilder) WithRetryableStep(name string, execute func(ctx context.Context, data any) (any, error), maxRetries int, retryDelay time.Duration) *SagaBuilder {
	b.saga.AddStep(SagaStep{Name: name, Execute: execute, MaxRetries: maxRetries, RetryDelay: retryDelay})
	return b
}

// Build returns the constructed Saga.
func (b *SagaBuilder) Build() *Saga {
	return b.saga
}
