package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrMissingEntity = errors.New("entity: required")

type TrackerConfig struct {
	TargetEntity    string
	UserAgentFilter string
	ScanInterval    time.Duration
}

func (c *TrackerConfig) Validate() error {
	if c.TargetEntity == "" {
		return ErrMissingEntity
	}
	if c.ScanInterval < 0 {
		return fmt.Errorf("scan_interval: must not be negative")
	}
	return nil
}

// DeviceCoordinates is the attribute record sent alongside the zone state.
type DeviceCoordinates struct {
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Accuracy         *float64 `json:"accuracy"`
	Altitude         *float64 `json:"altitude"`
	AltitudeAccuracy *float64 `json:"altitude_accuracy"`
	Heading          *float64 `json:"heading"`
	Speed            *float64 `json:"speed"`
	Timestamp        int64    `json:"timestamp"`
}

type StateUpdate struct {
	Entity     string            `json:"entity"`
	State      string            `json:"state"`
	Attributes DeviceCoordinates `json:"attributes"`
}

func NewStateUpdate(entity, state string, r *DeviceReading) *StateUpdate {
	return &StateUpdate{
		Entity: entity,
		State:  state,
		Attributes: DeviceCoordinates{
			Latitude:         r.Point.Lat,
			Longitude:        r.Point.Lon,
			Accuracy:         r.Accuracy,
			Altitude:         r.Altitude,
			AltitudeAccuracy: r.AltitudeAccuracy,
			Heading:          r.Heading,
			Speed:            r.Speed,
			Timestamp:        r.Timestamp,
		},
	}
}
