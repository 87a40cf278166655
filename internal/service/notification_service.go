package service

import (
	"context"
	"encoding/json"
	"time"

	"second-brain-client/internal/entity"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// INotifier is the narrow view the stores need: fire a transient message.
type INotifier interface {
	Notify(ctx context.Context, severity entity.NotificationSeverity, message string)
}

type INotificationService interface {
	INotifier
	// Subscribe streams notifications published after the call until ctx
	// is done.
	Subscribe(ctx context.Context) (<-chan entity.Notification, error)
	Close() error
}

type notificationService struct {
	pubSub    *gochannel.GoChannel
	topic     string
	forwarder events.Publisher
	logger    logger.ILogger
	now       func() time.Time
}

// NewNotificationService publishes on an in-process watermill channel.
// forwarder may be nil; when set every notification is mirrored to it.
func NewNotificationService(pubSub *gochannel.GoChannel, topic string, forwarder events.Publisher, log logger.ILogger) INotificationService {
	return &notificationService{
		pubSub:    pubSub,
		topic:     topic,
		forwarder: forwarder,
		logger:    log,
		now:       time.Now,
	}
}

func (s *notificationService) Notify(ctx context.Context, severity entity.NotificationSeverity, text string) {
	n := entity.Notification{
		Id:        watermill.NewUUID(),
		Severity:  severity,
		Message:   text,
		CreatedAt: s.now(),
	}

	payload, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to encode notification", map[string]interface{}{"error": err})
		return
	}

	if err := s.pubSub.Publish(s.topic, message.NewMessage(n.Id, payload)); err != nil {
		s.logger.Error("NotificationService", "Failed to publish notification", map[string]interface{}{"error": err})
	}

	if s.forwarder != nil {
		evt := events.BaseEvent{
			Type: events.TypeNotification,
			Data: map[string]interface{}{
				"id":       n.Id,
				"severity": string(n.Severity),
				"message":  n.Message,
			},
			OccurredAt: n.CreatedAt,
		}
		if err := s.forwarder.Publish(ctx, evt); err != nil {
			s.logger.Warn("NotificationService", "Failed to forward notification", map[string]interface{}{"error": err.Error()})
		}
	}
}

// A message is acked once it sits in the returned channel, so a pubsub
// configured to block until ack hands it over before Notify returns.
func (s *notificationService) Subscribe(ctx context.Context) (<-chan entity.Notification, error) {
	messages, err := s.pubSub.Subscribe(ctx, s.topic)
	if err != nil {
		return nil, err
	}

	out := make(chan entity.Notification, 16)
	go func() {
		defer close(out)
		for msg := range messages {
			var n entity.Notification
			if err := json.Unmarshal(msg.Payload, &n); err != nil {
				s.logger.Warn("NotificationService", "Dropping undecodable notification", map[string]interface{}{"error": err.Error()})
				msg.Ack()
				continue
			}
			select {
			case out <- n:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return out, nil
}

func (s *notificationService) Close() error {
	return s.pubSub.Close()
}
