package database

import (
	"context"

	"github.com/nandanugg/zone-tracker/module/core/domain"
)

type ZoneRepository interface {
	ListZones(ctx context.Context) ([]domain.Zone, error)
}
