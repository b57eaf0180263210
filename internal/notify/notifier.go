package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tnrbusiness/outreach/internal/domain"
	"github.com/tnrbusiness/outreach/internal/observability"
	"github.com/tnrbusiness/outreach/internal/queue"
	"github.com/tnrbusiness/outreach/internal/repository"
	"go.uber.org/zap"
)

// Notifier emits fire-and-forget events. Notify never returns an error:
// notification failure must not fail the business operation that raised it,
// so every failure path here ends in a log line and an event row marked
// undelivered.
type Notifier struct {
	events    repository.EventRepository
	publisher queue.Publisher
	mailer    Mailer
	logger    *zap.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

func NewNotifier(events repository.EventRepository, publisher queue.Publisher, mailer Mailer, logger *zap.Logger) (*Notifier, error) {
	if events == nil {
		return nil, fmt.Errorf("event repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Notifier{
		events:    events,
		publisher: publisher,
		mailer:    mailer,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (n *Notifier) SetMetrics(metrics *observability.Metrics) {
	n.metrics = metrics
}

// Notify records the event and hands it to the queue for delivery. When the
// broker is unreachable it falls back to sending the mail inline, and when
// that also fails the event row stays undelivered for later inspection.
func (n *Notifier) Notify(ctx context.Context, kind domain.EventKind, payload map[string]any) {
	logger := observability.WithContextLogger(n.logger, ctx)

	event := &domain.Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		Payload: payload,
	}
	if err := event.Validate(); err != nil {
		logger.Warn("dropping invalid notification event", zap.Error(err))
		return
	}

	if err := n.events.Create(ctx, event); err != nil {
		logger.Warn("failed to record notification event, delivering inline",
			zap.String("event_kind", kind.String()),
			zap.Error(err),
		)
		n.deliverInline(ctx, logger, *event, false)
		return
	}

	msg := queue.EventMessage{EventID: event.ID, Kind: event.Kind}
	if correlationID, ok := observability.CorrelationIDFromContext(ctx); ok {
		msg.CorrelationID = correlationID
	}

	if n.publisher != nil {
		err := n.publisher.Publish(ctx, queue.EventQueue, msg)
		if err == nil {
			logger.Info("notification event queued",
				zap.String("event_id", event.ID),
				zap.String("event_kind", kind.String()),
			)
			return
		}
		logger.Warn("failed to queue notification event, delivering inline",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}

	n.deliverInline(ctx, logger, *event, true)
}

// deliverInline is the no-broker path. markRow is false when the event row
// itself could not be written.
func (n *Notifier) deliverInline(ctx context.Context, logger *zap.Logger, event domain.Event, markRow bool) {
	if n.mailer == nil {
		logger.Warn("no mailer configured, notification not delivered",
			zap.String("event_id", event.ID),
		)
		if n.metrics != nil {
			n.metrics.IncNotificationFailed(event.Kind.String())
		}
		return
	}

	attemptedAt := n.now().UTC()
	err := n.mailer.Send(ctx, event)
	delivered := err == nil

	if markRow {
		if markErr := n.events.MarkDelivery(ctx, event.ID, attemptedAt, delivered); markErr != nil {
			logger.Warn("failed to record notification delivery state",
				zap.String("event_id", event.ID),
				zap.Error(markErr),
			)
		}
	}

	if err != nil {
		logger.Warn("inline notification delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_kind", event.Kind.String()),
			zap.Error(err),
		)
		if n.metrics != nil {
			n.metrics.IncNotificationFailed(event.Kind.String())
		}
		return
	}

	logger.Info("notification delivered inline",
		zap.String("event_id", event.ID),
		zap.String("event_kind", event.Kind.String()),
	)
	if n.metrics != nil {
		n.metrics.IncNotificationDelivered(event.Kind.String())
	}
}
