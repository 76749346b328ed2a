package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/zone-tracker/module/core/domain"
)

type fakeChannel struct {
	publishFn func(ctx context.Context, exchange, key string, msg amqp.Publishing) error
	exchange  string
	published []amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange = exchange
	f.published = append(f.published, msg)
	if f.publishFn != nil {
		return f.publishFn(ctx, exchange, key, msg)
	}
	return nil
}

func TestPushState_Success(t *testing.T) {
	ch := &fakeChannel{}
	pub := &StatePublisher{ch: ch}

	acc := 12.5
	update := &domain.StateUpdate{
		Entity: "device_tracker.phone",
		State:  "home",
		Attributes: domain.DeviceCoordinates{
			Latitude:  40.7128,
			Longitude: -74.0060,
			Accuracy:  &acc,
			Timestamp: 1715003456000,
		},
	}

	if err := pub.PushState(context.Background(), update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ch.published) != 1 {
		t.Fatalf("expected 1 message, got %d", len(ch.published))
	}
	if ch.exchange != ExchangeName {
		t.Errorf("expected %s, got %s", ExchangeName, ch.exchange)
	}

	var msg StateMessage
	if err := json.Unmarshal(ch.published[0].Body, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Entity != "device_tracker.phone" {
		t.Errorf("expected device_tracker.phone, got %s", msg.Entity)
	}
	if msg.State != "home" {
		t.Errorf("expected home, got %s", msg.State)
	}
	if msg.Attributes.Accuracy == nil || *msg.Attributes.Accuracy != 12.5 {
		t.Errorf("expected accuracy 12.5, got %v", msg.Attributes.Accuracy)
	}
	if msg.ReportedAt <= 0 {
		t.Errorf("expected reported_at to be set, got %d", msg.ReportedAt)
	}
}

func TestPushState_PublishError(t *testing.T) {
	ch := &fakeChannel{
		publishFn: func(_ context.Context, _, _ string, _ amqp.Publishing) error {
			return errors.New("channel closed")
		},
	}
	pub := &StatePublisher{ch: ch}

	err := pub.PushState(context.Background(), &domain.StateUpdate{Entity: "device_tracker.phone", State: "unknown"})
	if err == nil {
		t.Fatal("expected error")
	}
}
