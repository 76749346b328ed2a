package publisher

import (
	"context"
	"fmt"
	"log"

	"github.com/nandanugg/zone-tracker/module/core/domain"
)

type StateSink interface {
	PushState(ctx context.Context, update *domain.StateUpdate) error
}

// Multi pushes every update to each sink in order and stops at the first error.
type Multi []StateSink

func (m Multi) PushState(ctx context.Context, update *domain.StateUpdate) error {
	for i, sink := range m {
		if err := sink.PushState(ctx, update); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}
	return nil
}

// Mirror wraps a sink that only copies updates already accepted elsewhere.
// Its failures are logged and never fail the push.
type Mirror struct {
	Name string
	Sink StateSink
}

func (m Mirror) PushState(ctx context.Context, update *domain.StateUpdate) error {
	if err := m.Sink.PushState(ctx, update); err != nil {
		log.Printf("mirror %s: dropped %s=%s: %v", m.Name, update.Entity, update.State, err)
	}
	return nil
}
