package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/query-service/internal/events"
)

// EventSink receives events for delivery outside the process.
type EventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

// NotificationService fans query events out to the log and, when configured,
// to an external sink such as the Redis event stream.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	sink       EventSink
}

// NewNotificationService creates the service. sink may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, sink EventSink) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		sink:       sink,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		n.dispatcher.Subscribe(eventType, n.forward)
	}
	n.dispatcher.Subscribe(events.EventQueryReplied, n.handleQueryReplied)
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("query_id", event.QueryID),
		zap.String("actor_id", event.Actor.ID),
		zap.Any("payload", event.Payload))
	if n.sink == nil {
		return nil
	}
	if err := n.sink.Publish(ctx, event); err != nil {
		n.logger.Warn("event sink publish failed", zap.String("event_id", event.ID), zap.Error(err))
		return err
	}
	return nil
}

func (n *NotificationService) handleQueryReplied(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.QueryRepliedPayload)
	if !ok || !payload.IsAdmin {
		return nil
	}
	n.logger.Debug("student has unread admin reply",
		zap.String("student_id", event.StudentID),
		zap.String("query_id", event.QueryID),
		zap.Int("seq", payload.Seq))
	return nil
}
