package subscriber

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nandanugg/zone-tracker/module/core/domain"
)

const topicPattern = "/tracker/entity/+/refresh"

type scheduler interface {
	Trigger(ctx context.Context) (*domain.StateUpdate, error)
}

type hostRuntime interface {
	Config() (*domain.TrackerConfig, bool)
}

// RefreshSubscriber runs an update cycle when the host asks the tracked
// entity to refresh.
type RefreshSubscriber struct {
	client    mqtt.Client
	scheduler scheduler
	runtime   hostRuntime
}

func NewRefreshSubscriber(client mqtt.Client, s scheduler, rt hostRuntime) *RefreshSubscriber {
	return &RefreshSubscriber{
		client:    client,
		scheduler: s,
		runtime:   rt,
	}
}

func (s *RefreshSubscriber) Start() error {
	token := s.client.Subscribe(topicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *RefreshSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	entity, err := entityFromTopic(msg.Topic())
	if err != nil {
		log.Printf("invalid refresh topic: %v", err)
		return
	}

	// before configuration every refresh goes through so the scheduler can
	// arm its retry
	if cfg, ok := s.runtime.Config(); ok && cfg.TargetEntity != entity {
		return
	}

	update, err := s.scheduler.Trigger(context.Background())
	if err != nil {
		log.Printf("refresh %s failed: %v", entity, err)
		return
	}
	if update != nil {
		log.Printf("refreshed %s: %s", update.Entity, update.State)
	}
}

func entityFromTopic(topic string) (string, error) {
	parts := strings.Split(strings.TrimPrefix(topic, "/"), "/")
	if len(parts) != 4 || parts[0] != "tracker" || parts[1] != "entity" || parts[3] != "refresh" {
		return "", fmt.Errorf("topic %q: does not match %s", topic, topicPattern)
	}
	if parts[2] == "" {
		return "", errors.New("entity: required")
	}
	return parts[2], nil
}
