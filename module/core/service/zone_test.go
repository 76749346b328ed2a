package service

import (
	"math"
	"testing"

	"github.com/nandanugg/zone-tracker/module/core/domain"
)

var (
	newYork = domain.GeoPoint{Lat: 40.7128, Lon: -74.0060}
	office  = domain.GeoPoint{Lat: 40.730610, Lon: -73.935242}
)

// offsetNorth returns a point the given distance north of p along its meridian.
func offsetNorth(p domain.GeoPoint, meters float64) domain.GeoPoint {
	return domain.GeoPoint{Lat: p.Lat + meters/earthRadiusMeters*180/math.Pi, Lon: p.Lon}
}

func TestHaversine(t *testing.T) {
	// same point should be 0
	d := Haversine(newYork, newYork)
	if d != 0 {
		t.Errorf("expected 0, got %f", d)
	}

	// roughly 6.1km between downtown and the office point
	d = Haversine(newYork, office)
	if d < 5900 || d > 6400 {
		t.Errorf("expected ~6.1km, got %f", d)
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	points := []domain.GeoPoint{
		newYork,
		office,
		{Lat: -6.2088, Lon: 106.8456},
		{Lat: 51.5074, Lon: -0.1278},
		{Lat: 89.9, Lon: 179.9},
		{Lat: -33.8688, Lon: 151.2093},
	}

	for _, a := range points {
		for _, b := range points {
			if ab, ba := Haversine(a, b), Haversine(b, a); ab != ba {
				t.Errorf("distance(%v,%v)=%f but distance(%v,%v)=%f", a, b, ab, b, a, ba)
			}
		}
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// one degree of latitude on the mean-radius sphere
	d := Haversine(domain.GeoPoint{Lat: 0, Lon: 0}, domain.GeoPoint{Lat: 1, Lon: 0})
	want := earthRadiusMeters * math.Pi / 180
	if math.Abs(d-want) > 1e-6 {
		t.Errorf("expected %f, got %f", want, d)
	}
}

func TestEvaluate_BoundaryIsInclusive(t *testing.T) {
	center := domain.GeoPoint{Lat: 10, Lon: 20}
	point := offsetNorth(center, 250)
	radius := Haversine(point, center)

	evals := Evaluate(point, []domain.Zone{{Name: "edge", Center: center, Radius: radius}})
	if len(evals) != 1 {
		t.Fatalf("expected 1 evaluation, got %d", len(evals))
	}
	if !evals[0].WithinRadius {
		t.Errorf("expected point at exactly the radius to be within, distance %f radius %f", evals[0].DistanceMeters, radius)
	}
}

func TestEvaluate_KeepsInputOrder(t *testing.T) {
	zones := []domain.Zone{
		{Name: "office", Center: office, Radius: 150},
		{Name: "home", Center: newYork, Radius: 100},
	}

	evals := Evaluate(newYork, zones)
	if len(evals) != 2 {
		t.Fatalf("expected 2 evaluations, got %d", len(evals))
	}
	if evals[0].Zone.Name != "office" || evals[1].Zone.Name != "home" {
		t.Errorf("unexpected order: %s, %s", evals[0].Zone.Name, evals[1].Zone.Name)
	}
	if evals[0].WithinRadius {
		t.Error("expected office to be out of range")
	}
	if !evals[1].WithinRadius || evals[1].DistanceMeters != 0 {
		t.Errorf("expected home at 0m within range, got %f %v", evals[1].DistanceMeters, evals[1].WithinRadius)
	}
}

func TestResolve(t *testing.T) {
	center := domain.GeoPoint{Lat: 52.52, Lon: 13.405}
	at50 := offsetNorth(center, 50)
	at30 := offsetNorth(center, 30)

	tests := []struct {
		name  string
		point domain.GeoPoint
		zones []domain.Zone
		want  string
	}{
		{"no zones", newYork, nil, domain.UnknownZone},
		{"empty zones", newYork, []domain.Zone{}, domain.UnknownZone},
		{
			"closest containing zone wins",
			center,
			[]domain.Zone{
				{Name: "z1", Center: at50, Radius: 200},
				{Name: "z2", Center: at30, Radius: 200},
			},
			"z2",
		},
		{
			"out of range only zone",
			center,
			[]domain.Zone{{Name: "far", Center: offsetNorth(center, 500), Radius: 200}},
			domain.UnknownZone,
		},
		{
			"equal distance keeps first",
			center,
			[]domain.Zone{
				{Name: "first", Center: at30, Radius: 200},
				{Name: "second", Center: at30, Radius: 200},
			},
			"first",
		},
		{
			"nearer zone too small loses to containing zone",
			center,
			[]domain.Zone{
				{Name: "tiny", Center: at30, Radius: 10},
				{Name: "wide", Center: at50, Radius: 200},
			},
			"wide",
		},
		{
			"home beats office",
			newYork,
			[]domain.Zone{
				{Name: "home", Center: newYork, Radius: 100},
				{Name: "office", Center: office, Radius: 150},
			},
			"home",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.point, tt.zones); got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolve_UnknownIsLiteral(t *testing.T) {
	got := NewZoneResolver().Resolve(domain.GeoPoint{Lat: -33.8688, Lon: 151.2093}, []domain.Zone{
		{Name: "home", Center: newYork, Radius: 100},
		{Name: "office", Center: office, Radius: 150},
	})
	if got != "unknown" {
		t.Errorf("expected literal unknown, got %q", got)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	zones := []domain.Zone{
		{Name: "a", Center: offsetNorth(newYork, 40), Radius: 100},
		{Name: "b", Center: offsetNorth(newYork, 20), Radius: 100},
	}
	first := Resolve(newYork, zones)
	for i := 0; i < 10; i++ {
		if got := Resolve(newYork, zones); got != first {
			t.Fatalf("run %d: got %q, want %q", i, got, first)
		}
	}
}
