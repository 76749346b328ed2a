package locator

import (
	"context"

	"github.com/nandanugg/zone-tracker/module/core/domain"
)

// Locator performs one position capture per call.
type Locator interface {
	RequestPosition(ctx context.Context) (*domain.DeviceReading, error)
}
