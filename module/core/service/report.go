package service

import (
	"context"
	"fmt"

	"github.com/nandanugg/zone-tracker/module/core/domain"
	"github.com/nandanugg/zone-tracker/module/core/internal/repository/locator"
	"github.com/nandanugg/zone-tracker/module/core/internal/repository/publisher"
)

type ReportService struct {
	locator  locator.Locator
	sink     publisher.StateSink
	resolver *ZoneResolver
}

func NewReportService(loc locator.Locator, sink publisher.StateSink) *ReportService {
	return &ReportService{
		locator:  loc,
		sink:     sink,
		resolver: NewZoneResolver(),
	}
}

// Report captures one position, resolves it against zones and pushes the
// result for cfg.TargetEntity. Nothing is pushed when the capture fails.
func (s *ReportService) Report(ctx context.Context, cfg *domain.TrackerConfig, zones []domain.Zone) (*domain.StateUpdate, error) {
	reading, err := s.locator.RequestPosition(ctx)
	if err != nil {
		return nil, fmt.Errorf("request position: %w", err)
	}

	state := s.resolver.Resolve(reading.Point, zones)
	update := domain.NewStateUpdate(cfg.TargetEntity, state, reading)

	if err := s.sink.PushState(ctx, update); err != nil {
		return nil, fmt.Errorf("push state: %w", err)
	}
	return update, nil
}
