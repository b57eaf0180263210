package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tnrbusiness/outreach/internal/domain"
	"github.com/tnrbusiness/outreach/internal/observability"
	"github.com/tnrbusiness/outreach/internal/queue"
	"github.com/tnrbusiness/outreach/internal/repository"
	"go.uber.org/zap"
)

var errMailerNotConfigured = errors.New("no mailer configured")

// Worker drains the notification event queue and delivers each event by
// mail, recording the outcome on the event row. Delivery is single-shot:
// a failed send is marked undelivered and acked, never requeued. With no
// mailer configured the worker still drains the queue, marking every
// event undelivered.
type Worker struct {
	events   repository.EventRepository
	consumer queue.Consumer
	mailer   Mailer
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewWorker(events repository.EventRepository, consumer queue.Consumer, mailer Mailer, logger *zap.Logger) (*Worker, error) {
	if events == nil {
		return nil, fmt.Errorf("event repository is required")
	}
	if consumer == nil {
		return nil, fmt.Errorf("queue consumer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Worker{
		events:   events,
		consumer: consumer,
		mailer:   mailer,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (w *Worker) SetMetrics(metrics *observability.Metrics) {
	w.metrics = metrics
}

// Run blocks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("notification worker starting", zap.String("queue", queue.EventQueue))
	return w.consumer.Consume(ctx, queue.EventQueue, w.handle)
}

func (w *Worker) handle(ctx context.Context, msg queue.EventMessage) error {
	logger := w.logger
	if msg.CorrelationID != "" {
		ctx = observability.WithCorrelationID(ctx, msg.CorrelationID)
		logger = observability.WithContextLogger(logger, ctx)
	}

	event, err := w.events.GetByID(ctx, msg.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("dropping message for unknown event",
				zap.String("event_id", msg.EventID),
			)
			return nil
		}
		// Transient lookup failure: requeue via nack.
		return err
	}

	if event.Delivered {
		logger.Info("event already delivered, skipping",
			zap.String("event_id", event.ID),
		)
		return nil
	}

	attemptedAt := w.now().UTC()
	sendErr := errMailerNotConfigured
	if w.mailer != nil {
		sendErr = w.mailer.Send(ctx, *event)
	}
	delivered := sendErr == nil

	if markErr := w.events.MarkDelivery(ctx, event.ID, attemptedAt, delivered); markErr != nil {
		logger.Warn("failed to record notification delivery state",
			zap.String("event_id", event.ID),
			zap.Error(markErr),
		)
	}

	if sendErr != nil {
		logger.Warn("notification delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_kind", event.Kind.String()),
			zap.Error(sendErr),
		)
		if w.metrics != nil {
			w.metrics.IncNotificationFailed(event.Kind.String())
		}
		return nil
	}

	logger.Info("notification delivered",
		zap.String("event_id", event.ID),
		zap.String("event_kind", event.Kind.String()),
	)
	if w.metrics != nil {
		w.metrics.IncNotificationDelivered(event.Kind.String())
	}
	return nil
}
