package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/xavierca1/dental-funnel/internal/infra/http/middleware"
	"github.com/xavierca1/dental-funnel/internal/usecase"
)

type ActionSweeper interface {
	Execute(ctx context.Context) (*usecase.SweepResult, error)
}

// ActionSweepWorker periodically publishes today's overdue, due-today and
// reminder-needed patients to the action queue.
type ActionSweepWorker struct {
	sweeper      ActionSweeper
	tickInterval time.Duration
	logger       zerolog.Logger
}

func NewActionSweepWorker(sweeper ActionSweeper, interval time.Duration, logger zerolog.Logger) *ActionSweepWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &ActionSweepWorker{
		sweeper:      sweeper,
		tickInterval: interval,
		logger:       logger,
	}
}

func (w *ActionSweepWorker) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.tickInterval).Msg("action sweep worker started")

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("action sweep worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ActionSweepWorker) sweep(ctx context.Context) {
	result, err := w.sweeper.Execute(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("action sweep failed")
		return
	}

	total := 0
	for reason, n := range result.Published {
		middleware.RecordActionPublished(string(reason), n)
		total += n
	}
	if result.Failed > 0 {
		middleware.RecordIntegrationError("rabbitmq")
	}
	if total > 0 || result.Failed > 0 {
		w.logger.Info().Int("published", total).Int("failed", result.Failed).Msg("action sweep finished")
	}
}
