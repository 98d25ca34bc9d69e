package geo

import (
	"math"
	"testing"
)

func TestHaversineSymmetry(t *testing.T) {
	jakarta := Point{Lat: -6.1754, Lon: 106.8272}
	surabaya := Point{Lat: -7.2575, Lon: 112.7521}

	ab := Distance(jakarta, surabaya)
	ba := Distance(surabaya, jakarta)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("expected symmetric distance, got %f and %f", ab, ba)
	}
	if ab < 600 || ab > 700 {
		t.Errorf("expected Jakarta-Surabaya around 660 km, got %f", ab)
	}
}

func TestHaversineZero(t *testing.T) {
	p := Point{Lat: 48.85, Lon: 2.35}
	if d := Distance(p, p); d != 0 {
		t.Fatalf("expected 0 for identical points, got %f", d)
	}
}

func TestHaversineOneDegreeLongitudeAtEquator(t *testing.T) {
	d := HaversineKm(0, 0, 0, 1)
	if math.Abs(d-111.2) > 1 {
		t.Fatalf("expected ~111.2 km, got %f", d)
	}
}

func TestNearest(t *testing.T) {
	origin := Point{Lat: 0, Lon: 0}
	candidates := []Point{
		{Lat: 0, Lon: 2},
		{Lat: 0, Lon: 0.1},
		{Lat: 0, Lon: 5},
	}

	idx, km, ok := Nearest(origin, candidates, 200)
	if !ok {
		t.Fatal("expected a candidate within radius")
	}
	if idx != 1 {
		t.Errorf("expected index 1, got %d", idx)
	}
	if km > 12 {
		t.Errorf("expected ~11 km, got %f", km)
	}

	if _, _, ok := Nearest(origin, candidates[2:], 200); ok {
		t.Error("expected no candidate within 200 km")
	}
	if _, _, ok := Nearest(origin, nil, 0); ok {
		t.Error("expected no candidate for empty input")
	}
}
