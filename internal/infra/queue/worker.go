package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/infra/http/middleware"
)

// ActionNotifier delivers an action notification to the counselor channel.
type ActionNotifier interface {
	NotifyAction(ctx context.Context, n entity.ActionNotification) error
}

type ReportRefresher interface {
	RefreshReport(ctx context.Context, req entity.ReportRefreshRequest) error
}

// Consumer is the part of *amqp.Channel the worker needs.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel   Consumer
	Notifier  ActionNotifier
	Refresher ReportRefresher
	Logger    zerolog.Logger
}

func NewWorker(ch Consumer, notifier ActionNotifier, refresher ReportRefresher, logger zerolog.Logger) *Worker {
	return &Worker{
		Channel:   ch,
		Notifier:  notifier,
		Refresher: refresher,
		Logger:    logger,
	}
}

// Start consumes both pipeline queues until ctx is cancelled or the channel
// closes. Messages are acked manually; failures go to the dead-letter queue.
func (w *Worker) Start(ctx context.Context) error {
	actions, err := w.Channel.Consume(ActionQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", ActionQueue, err)
	}
	refreshes, err := w.Channel.Consume(RefreshQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", RefreshQueue, err)
	}

	w.Logger.Info().Str("actions", ActionQueue).Str("refresh", RefreshQueue).Msg("queue worker started")

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info().Msg("queue worker stopped")
			return nil
		case d, ok := <-actions:
			if !ok {
				return fmt.Errorf("%s delivery channel closed", ActionQueue)
			}
			w.handleAction(ctx, d)
		case d, ok := <-refreshes:
			if !ok {
				return fmt.Errorf("%s delivery channel closed", RefreshQueue)
			}
			w.handleRefresh(ctx, d)
		}
	}
}

func (w *Worker) handleAction(ctx context.Context, d amqp.Delivery) {
	var n entity.ActionNotification
	if err := json.Unmarshal(d.Body, &n); err != nil {
		w.Logger.Error().Err(err).Str("queue", ActionQueue).Msg("invalid message body")
		_ = d.Nack(false, false)
		return
	}

	if err := w.Notifier.NotifyAction(ctx, n); err != nil {
		middleware.RecordIntegrationError("action_notifier")
		w.Logger.Error().Err(err).Str("patient_id", n.PatientID).Str("reason", string(n.Reason)).Msg("failed to deliver action notification")
		_ = d.Nack(false, false)
		return
	}

	w.Logger.Debug().Str("patient_id", n.PatientID).Str("reason", string(n.Reason)).Msg("action notification delivered")
	_ = d.Ack(false)
}

func (w *Worker) handleRefresh(ctx context.Context, d amqp.Delivery) {
	var req entity.ReportRefreshRequest
	if err := json.Unmarshal(d.Body, &req); err != nil || req.ReportID == "" {
		w.Logger.Error().Err(err).Str("queue", RefreshQueue).Msg("invalid message body")
		_ = d.Nack(false, false)
		return
	}

	if err := w.Refresher.RefreshReport(ctx, req); err != nil {
		w.Logger.Error().Err(err).Str("report_id", req.ReportID).Msg("failed to refresh report")
		_ = d.Nack(false, false)
		return
	}

	w.Logger.Info().Str("report_id", req.ReportID).Str("requested_by", req.RequestedBy).Msg("report refreshed from queue")
	_ = d.Ack(false)
}
