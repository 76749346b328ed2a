package domain

import "time"

type GeoPoint struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// DeviceReading is one position capture. Optional measurements are nil when
// the platform did not report them.
type DeviceReading struct {
	Point            GeoPoint `json:"point"`
	Accuracy         *float64 `json:"accuracy"`
	Altitude         *float64 `json:"altitude"`
	AltitudeAccuracy *float64 `json:"altitude_accuracy"`
	Heading          *float64 `json:"heading"`
	Speed            *float64 `json:"speed"`
	Timestamp        int64    `json:"timestamp"`
}

func (r *DeviceReading) CapturedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}
