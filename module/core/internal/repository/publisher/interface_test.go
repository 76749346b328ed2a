package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/nandanugg/zone-tracker/module/core/domain"
)

type recordingSink struct {
	name  string
	err   error
	order *[]string
}

func (s *recordingSink) PushState(_ context.Context, _ *domain.StateUpdate) error {
	*s.order = append(*s.order, s.name)
	return s.err
}

func TestMulti_PushesInOrder(t *testing.T) {
	var order []string
	m := Multi{
		&recordingSink{name: "statestore", order: &order},
		&recordingSink{name: "rabbitmq", order: &order},
	}

	if err := m.PushState(context.Background(), &domain.StateUpdate{State: "home"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "statestore" || order[1] != "rabbitmq" {
		t.Errorf("unexpected order %v", order)
	}
}

func TestMulti_StopsAtFirstError(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	m := Multi{
		&recordingSink{name: "statestore", err: boom, order: &order},
		&recordingSink{name: "rabbitmq", order: &order},
	}

	err := m.PushState(context.Background(), &domain.StateUpdate{State: "home"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(order) != 1 {
		t.Errorf("expected second sink to be skipped, got %v", order)
	}
}

func TestMulti_Empty(t *testing.T) {
	if err := (Multi{}).PushState(context.Background(), &domain.StateUpdate{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMirror_SwallowsError(t *testing.T) {
	var order []string
	m := Multi{
		&recordingSink{name: "statestore", order: &order},
		Mirror{Name: "rabbitmq", Sink: &recordingSink{name: "rabbitmq", err: errors.New("amqp down"), order: &order}},
	}

	err := m.PushState(context.Background(), &domain.StateUpdate{Entity: "device_tracker.phone", State: "home"})
	if err != nil {
		t.Fatalf("expected mirror failure to be swallowed, got %v", err)
	}
	if len(order) != 2 {
		t.Errorf("expected both sinks to be pushed, got %v", order)
	}
}

func TestMirror_StoreErrorStillFails(t *testing.T) {
	var order []string
	boom := errors.New("store down")
	m := Multi{
		&recordingSink{name: "statestore", err: boom, order: &order},
		Mirror{Name: "rabbitmq", Sink: &recordingSink{name: "rabbitmq", order: &order}},
	}

	if err := m.PushState(context.Background(), &domain.StateUpdate{State: "home"}); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(order) != 1 {
		t.Errorf("expected mirror to be skipped, got %v", order)
	}
}
