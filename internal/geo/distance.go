package geo

import (
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for all distance computations.
const EarthRadiusKm = 6371.0

// Point is a coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// HaversineKm returns the great-circle distance between two points in kilometers.
// s2.LatLng.Distance evaluates the haversine formula on the unit sphere.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// Distance is HaversineKm for two Points.
func Distance(a, b Point) float64 {
	return HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Nearest returns the index of the candidate closest to origin and its distance.
// Candidates farther than maxKm are ignored when maxKm > 0.
// ok is false when no candidate qualifies.
func Nearest(origin Point, candidates []Point, maxKm float64) (idx int, km float64, ok bool) {
	idx = -1
	for i, c := range candidates {
		d := Distance(origin, c)
		if maxKm > 0 && d > maxKm {
			continue
		}
		if idx == -1 || d < km {
			idx, km = i, d
		}
	}
	return idx, km, idx >= 0
}
