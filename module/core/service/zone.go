package service

import (
	"math"

	"github.com/nandanugg/zone-tracker/module/core/domain"
)

const earthRadiusMeters = 6371000

// ZoneResolver picks the zone a point belongs to. It holds no state; the
// zone set is passed in on every call.
type ZoneResolver struct{}

func NewZoneResolver() *ZoneResolver {
	return &ZoneResolver{}
}

func (r *ZoneResolver) Resolve(point domain.GeoPoint, zones []domain.Zone) string {
	return Resolve(point, zones)
}

func (r *ZoneResolver) Evaluate(point domain.GeoPoint, zones []domain.Zone) []domain.ZoneEvaluation {
	return Evaluate(point, zones)
}

// Evaluate measures the distance from point to every zone center, in input order.
func Evaluate(point domain.GeoPoint, zones []domain.Zone) []domain.ZoneEvaluation {
	evals := make([]domain.ZoneEvaluation, len(zones))
	for i, z := range zones {
		dist := Haversine(point, z.Center)
		evals[i] = domain.ZoneEvaluation{
			Zone:           z,
			DistanceMeters: dist,
			WithinRadius:   dist <= z.Radius,
		}
	}
	return evals
}

// Resolve returns the name of the closest zone containing point, or
// domain.UnknownZone. Equal distances keep the zone listed first.
func Resolve(point domain.GeoPoint, zones []domain.Zone) string {
	var best *domain.ZoneEvaluation
	evals := Evaluate(point, zones)
	for i := range evals {
		ev := &evals[i]
		if !ev.WithinRadius {
			continue
		}
		if best == nil || ev.DistanceMeters < best.DistanceMeters {
			best = ev
		}
	}
	if best == nil {
		return domain.UnknownZone
	}
	return best.Zone.Name
}

func Haversine(a, b domain.GeoPoint) float64 {
	return haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
