package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nandanugg/zone-tracker/module/core/domain"
	"github.com/nandanugg/zone-tracker/module/core/internal/repository/database"
)

var ErrConfigImmutable = errors.New("tracker already configured")

// Runtime is the host side of the tracker: the configuration handed over by
// SetConfig, the runtime's user-agent and a live view of the zones.
type Runtime struct {
	zones     database.ZoneRepository
	userAgent string

	mu  sync.RWMutex
	cfg *domain.TrackerConfig
}

func NewRuntime(zones database.ZoneRepository, userAgent string) *Runtime {
	return &Runtime{zones: zones, userAgent: userAgent}
}

// SetConfig validates and stores cfg. The first accepted config is kept for
// the lifetime of the runtime; repeating it is a no-op, changing it fails.
func (r *Runtime) SetConfig(cfg domain.TrackerConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg != nil {
		if *r.cfg == cfg {
			return nil
		}
		return ErrConfigImmutable
	}
	r.cfg = &cfg
	return nil
}

func (r *Runtime) Config() (*domain.TrackerConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cfg == nil {
		return nil, false
	}
	cfg := *r.cfg
	return &cfg, true
}

func (r *Runtime) UserAgent() string {
	return r.userAgent
}

// Zones reads a fresh snapshot on every call.
func (r *Runtime) Zones(ctx context.Context) ([]domain.Zone, error) {
	if r.zones == nil {
		return nil, errors.New("zone source not configured")
	}
	return r.zones.ListZones(ctx)
}
