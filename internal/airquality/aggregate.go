package airquality

import (
	"sort"
	"time"
)

// Summarize returns the latest usable record of the series as a SummaryRecord.
// ok is false when the series has no usable record.
func Summarize(series *Series) (SummaryRecord, bool) {
	if series == nil {
		return SummaryRecord{}, false
	}

	for i := len(series.Records) - 1; i >= 0; i-- {
		r := series.Records[i]
		if !r.Usable() {
			continue
		}

		s := SummaryRecord{
			LocationName: series.Label(),
			Time:         r.Time,
		}
		s.PM25 = valueOrZero(r.PM25, PM25, &s.Missing)
		s.PM10 = valueOrZero(r.PM10, PM10, &s.Missing)
		s.NO2 = valueOrZero(r.NitrogenDioxide, NitrogenDioxide, &s.Missing)
		s.SO2 = valueOrZero(r.SulphurDioxide, SulphurDioxide, &s.Missing)
		s.Ozone = valueOrZero(r.Ozone, Ozone, &s.Missing)
		s.CO = valueOrZero(r.CarbonMonoxide, CarbonMonoxide, &s.Missing)
		return s, true
	}
	return SummaryRecord{}, false
}

// SummarizeMany summarizes each series in order, skipping nil or unusable ones.
func SummarizeMany(series []*Series) []SummaryRecord {
	out := make([]SummaryRecord, 0, len(series))
	for _, s := range series {
		if sum, ok := Summarize(s); ok {
			out = append(out, sum)
		}
	}
	return out
}

func valueOrZero(v *float64, p Pollutant, missing *[]string) float64 {
	if v == nil {
		*missing = append(*missing, string(p))
		return 0
	}
	return *v
}

// Tail returns up to n of the latest usable records, oldest first.
func Tail(series *Series, n int) []Record {
	if series == nil || n <= 0 {
		return nil
	}
	var out []Record
	for i := len(series.Records) - 1; i >= 0 && len(out) < n; i-- {
		if series.Records[i].Usable() {
			out = append(out, series.Records[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Granularity selects the resampling period.
type Granularity string

const (
	Daily  Granularity = "day"
	Weekly Granularity = "week"
)

// PeriodMean is one row of the pivoted means: the period start and the mean of
// every pollutant that had at least one sample in it.
type PeriodMean struct {
	Period          time.Time `json:"period"`
	Samples         int       `json:"samples"`
	PM10            *float64  `json:"pm10,omitempty"`
	PM25            *float64  `json:"pm2_5,omitempty"`
	CarbonMonoxide  *float64  `json:"carbon_monoxide,omitempty"`
	NitrogenDioxide *float64  `json:"nitrogen_dioxide,omitempty"`
	SulphurDioxide  *float64  `json:"sulphur_dioxide,omitempty"`
	Ozone           *float64  `json:"ozone,omitempty"`
}

func (m *PeriodMean) set(p Pollutant, v float64) {
	switch p {
	case PM10:
		m.PM10 = &v
	case PM25:
		m.PM25 = &v
	case CarbonMonoxide:
		m.CarbonMonoxide = &v
	case NitrogenDioxide:
		m.NitrogenDioxide = &v
	case SulphurDioxide:
		m.SulphurDioxide = &v
	case Ozone:
		m.Ozone = &v
	}
}

// FloorPeriod truncates t to the start of its day or ISO week (Monday) in t's location.
func FloorPeriod(t time.Time, g Granularity) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if g != Weekly {
		return day
	}
	offset := (int(day.Weekday()) + 6) % 7 // days since Monday
	return day.AddDate(0, 0, -offset)
}

// Resample averages each pollutant per period. Periods without any sample are omitted.
func Resample(series *Series, g Granularity) []PeriodMean {
	if series == nil {
		return nil
	}

	type acc struct {
		period  time.Time
		sum     map[Pollutant]float64
		count   map[Pollutant]int
		samples int
	}

	// Keyed by calendar date: decoded times carry distinct *Location values
	// for the same offset, so time.Time itself is not a usable map key.
	type dateKey struct {
		year  int
		month time.Month
		day   int
	}

	buckets := make(map[dateKey]*acc)
	var ordered []*acc
	for _, r := range series.Records {
		if !r.Usable() {
			continue
		}
		period := FloorPeriod(r.Time, g)
		y, m, d := period.Date()
		a, ok := buckets[dateKey{y, m, d}]
		if !ok {
			a = &acc{period: period, sum: make(map[Pollutant]float64), count: make(map[Pollutant]int)}
			buckets[dateKey{y, m, d}] = a
			ordered = append(ordered, a)
		}
		a.samples++
		for _, p := range AllPollutants() {
			if v := r.Value(p); v != nil {
				a.sum[p] += *v
				a.count[p]++
			}
		}
	}

	sort.Slice(ordered, func(i, j int) bool { return ordered[i].period.Before(ordered[j].period) })

	out := make([]PeriodMean, 0, len(ordered))
	for _, a := range ordered {
		row := PeriodMean{Period: a.period, Samples: a.samples}
		for _, p := range AllPollutants() {
			if n := a.count[p]; n > 0 {
				row.set(p, a.sum[p]/float64(n))
			}
		}
		out = append(out, row)
	}
	return out
}
