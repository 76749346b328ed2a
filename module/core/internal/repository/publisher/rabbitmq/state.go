package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/zone-tracker/module/core/domain"
	"github.com/nandanugg/zone-tracker/module/core/internal/repository/publisher"
)

var _ publisher.StateSink = (*StatePublisher)(nil)

const (
	ExchangeName = "tracker.events"
	QueueName    = "zone_states"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type StatePublisher struct {
	ch channel
}

func NewStatePublisher(conn *amqp.Connection) (*StatePublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(QueueName, "", ExchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &StatePublisher{ch: ch}, nil
}

// StateMessage is the body published on ExchangeName.
type StateMessage struct {
	Entity     string                   `json:"entity"`
	State      string                   `json:"state"`
	Attributes domain.DeviceCoordinates `json:"attributes"`
	ReportedAt int64                    `json:"reported_at"`
}

func (p *StatePublisher) PushState(ctx context.Context, update *domain.StateUpdate) error {
	msg := StateMessage{
		Entity:     update.Entity,
		State:      update.State,
		Attributes: update.Attributes,
		ReportedAt: time.Now().UnixMilli(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	return p.ch.PublishWithContext(ctx, ExchangeName, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Type:        "state_update",
		Body:        body,
	})
}
