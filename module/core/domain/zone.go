package domain

// UnknownZone is reported when no zone contains the device.
const UnknownZone = "unknown"

type Zone struct {
	Name   string   `json:"name"`
	Center GeoPoint `json:"center"`
	Radius float64  `json:"radius"`
}

type ZoneEvaluation struct {
	Zone           Zone    `json:"zone"`
	DistanceMeters float64 `json:"distance_meters"`
	WithinRadius   bool    `json:"within_radius"`
}
