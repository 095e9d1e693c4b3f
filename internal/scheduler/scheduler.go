package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"
	"wz-analyzer/internal/config"
	"wz-analyzer/internal/constants"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var ErrTaskTimeout = errors.New("task timed out")

// Scheduler runs batches of tasks with at most limit in flight, each bounded
// by timeout. A failing or timed out task never cancels its siblings.
type Scheduler struct {
	limit   int
	timeout time.Duration
	grace   time.Duration
	logger  zerolog.Logger
}

func New(cfg *config.Config, logger zerolog.Logger) *Scheduler {
	return NewWithLimits(cfg.Concurrency, cfg.TaskTimeout, logger)
}

func NewWithLimits(limit int, timeout time.Duration, logger zerolog.Logger) *Scheduler {
	if limit < 1 {
		limit = constants.DefaultConcurrency
	}
	if timeout <= 0 {
		timeout = constants.DefaultTaskTimeout
	}
	return &Scheduler{
		limit:   limit,
		timeout: timeout,
		grace:   constants.TaskUnwindGrace,
		logger:  logger.With().Str("component", "scheduler").Logger(),
	}
}

func (s *Scheduler) Limit() int { return s.limit }

// Run submits every item and blocks until each one has settled, either with
// the result of fn or, when fn times out or panics, with fallback. Results
// come back in completion order, not submission order.
func Run[T, R any](ctx context.Context, s *Scheduler, items []T, fn func(context.Context, T) R, fallback func(T, error) R) []R {
	results := make(chan R, len(items))

	g := new(errgroup.Group)
	g.SetLimit(s.limit)

	for _, item := range items {
		g.Go(func() error {
			results <- runOne(ctx, s, item, fn, fallback)
			return nil
		})
	}

	_ = g.Wait()
	close(results)

	out := make([]R, 0, len(items))
	for r := range results {
		out = append(out, r)
	}
	return out
}

func runOne[T, R any](ctx context.Context, s *Scheduler, item T, fn func(context.Context, T) R, fallback func(T, error) R) R {
	taskID := uuid.New().String()
	log := s.logger.With().Str("task_id", taskID).Logger()

	taskCtx, cancel := context.WithTimeout(log.WithContext(ctx), s.timeout)
	defer cancel()

	done := make(chan R, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Msg("task panicked")
				done <- fallback(item, fmt.Errorf("task panicked: %v", rec))
			}
		}()
		done <- fn(taskCtx, item)
	}()

	select {
	case r := <-done:
		return r
	case <-taskCtx.Done():
		err := taskCtx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrTaskTimeout
		}
		log.Warn().Err(err).Dur("timeout", s.timeout).Msg("task abandoned")

		cancel()
		select {
		case <-done:
		case <-time.After(s.grace):
			log.Warn().Dur("grace", s.grace).Msg("abandoned task still running")
		}
		return fallback(item, err)
	}
}
