package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"second-brain-client/internal/entity"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func TestNotificationServiceDeliversAndForwards(t *testing.T) {
	forwarder := &recordingPublisher{}
	svc := NewNotificationService(gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}), "client.notifications", forwarder, logger.NewNopLogger())
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := svc.Subscribe(ctx)
	require.NoError(t, err)

	svc.Notify(ctx, entity.SeveritySuccess, "Conversation exported successfully")

	select {
	case n := <-ch:
		assert.Equal(t, entity.SeveritySuccess, n.Severity)
		assert.Equal(t, "Conversation exported successfully", n.Message)
		assert.NotEmpty(t, n.Id)
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}

	forwarder.mu.Lock()
	defer forwarder.mu.Unlock()
	require.Len(t, forwarder.events, 1)
	assert.Equal(t, events.TypeNotification, forwarder.events[0].EventType())
	assert.Equal(t, "success", forwarder.events[0].Payload()["severity"])
}

func TestNotifyWithoutSubscribersDoesNotBlock(t *testing.T) {
	svc := NewNotificationService(gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}), "t", nil, logger.NewNopLogger())
	defer svc.Close()

	done := make(chan struct{})
	go func() {
		svc.Notify(context.Background(), entity.SeverityInfo, "hello")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked")
	}
}
