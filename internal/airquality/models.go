package airquality

import (
	"time"
)

// Pollutant names one measured quantity, using the provider's field names.
type Pollutant string

const (
	PM10            Pollutant = "pm10"
	PM25            Pollutant = "pm2_5"
	CarbonMonoxide  Pollutant = "carbon_monoxide"
	NitrogenDioxide Pollutant = "nitrogen_dioxide"
	SulphurDioxide  Pollutant = "sulphur_dioxide"
	Ozone           Pollutant = "ozone"
)

// AllPollutants returns every pollutant in canonical order.
func AllPollutants() []Pollutant {
	return []Pollutant{PM10, PM25, CarbonMonoxide, NitrogenDioxide, SulphurDioxide, Ozone}
}

// Provenance tells whether a series came from the requested point or a substitute station.
type Provenance string

const (
	ProvenanceDirect         Provenance = "direct"
	ProvenanceNearestStation Provenance = "nearest_station"
)

// Record is one hourly reading. Nil fields are values the provider did not report.
type Record struct {
	Time            time.Time `json:"time"`
	PM10            *float64  `json:"pm10"`
	PM25            *float64  `json:"pm2_5"`
	CarbonMonoxide  *float64  `json:"carbon_monoxide"`
	NitrogenDioxide *float64  `json:"nitrogen_dioxide"`
	SulphurDioxide  *float64  `json:"sulphur_dioxide"`
	Ozone           *float64  `json:"ozone"`
}

// Value returns the reading for p, or nil.
func (r Record) Value(p Pollutant) *float64 {
	switch p {
	case PM10:
		return r.PM10
	case PM25:
		return r.PM25
	case CarbonMonoxide:
		return r.CarbonMonoxide
	case NitrogenDioxide:
		return r.NitrogenDioxide
	case SulphurDioxide:
		return r.SulphurDioxide
	case Ozone:
		return r.Ozone
	default:
		return nil
	}
}

// Usable reports whether at least one pollutant is present.
func (r Record) Usable() bool {
	for _, p := range AllPollutants() {
		if r.Value(p) != nil {
			return true
		}
	}
	return false
}

// Source identifies where a series was actually measured.
type Source struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Series is a time-ordered run of records for one location.
type Series struct {
	// LocationName is the name the caller asked about; it may differ from Source.Name
	// when a nearby station stood in.
	LocationName string     `json:"location_name,omitempty"`
	Source       Source     `json:"source"`
	Provenance   Provenance `json:"provenance"`
	DistanceKm   float64    `json:"distance_km,omitempty"`
	Provider     string     `json:"provider"`
	Records      []Record   `json:"records"`
}

// Label is the name used in summaries.
func (s *Series) Label() string {
	if s.LocationName != "" {
		return s.LocationName
	}
	return s.Source.Name
}

// Station is a monitoring site returned by a nearby-stations query.
type Station struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SummaryRecord is the latest usable snapshot for one location.
// Pollutants the snapshot lacked are reported as 0 and listed in Missing.
type SummaryRecord struct {
	LocationName string    `json:"location_name"`
	Time         time.Time `json:"time"`
	PM25         float64   `json:"pm2_5"`
	PM10         float64   `json:"pm10"`
	NO2          float64   `json:"no2"`
	SO2          float64   `json:"so2"`
	Ozone        float64   `json:"ozone"`
	CO           float64   `json:"co"`
	Missing      []string  `json:"missing,omitempty"`
}
