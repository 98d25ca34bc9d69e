package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Kind is the geographic scope of a query.
type Kind string

const (
	Single   Kind = "single"
	SubAreas Kind = "subareas"
	Multi    Kind = "multi"
	None     Kind = "none"
)

// Level is an administrative level hint.
type Level string

const (
	Province Level = "province"
	City     Level = "city"
	Regency  Level = "regency"
	District Level = "district"
	Village  Level = "village"
)

const dateLayout = "2006-01-02"

// ErrMalformed means a classification response did not have the LocationIntent shape.
var ErrMalformed = errors.New("malformed classification response")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(locationIntentRules, LocationIntent{})
	return v
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (d DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}{d.Start.Format(dateLayout), d.End.Format(dateLayout)})
}

func (d *DateRange) UnmarshalJSON(data []byte) error {
	var raw struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := time.Parse(dateLayout, raw.Start)
	if err != nil {
		return err
	}
	end, err := time.Parse(dateLayout, raw.End)
	if err != nil {
		return err
	}
	d.Start, d.End = start, end
	return nil
}

// Days returns the number of calendar days covered.
func (d DateRange) Days() int {
	return int(d.End.Sub(d.Start).Hours()/24) + 1
}

// LocationIntent is the structured reading of a user query.
type LocationIntent struct {
	Intent     Kind      `json:"intent" validate:"oneof=single subareas multi none"`
	Level      *Level    `json:"level" validate:"omitempty,oneof=province city regency district village"`
	Areas      []string  `json:"areas" validate:"dive,required"`
	ParentArea *string   `json:"parent_area"`
	DateRange  DateRange `json:"date_range"`
}

func locationIntentRules(sl validator.StructLevel) {
	li := sl.Current().Interface().(LocationIntent)
	if li.Intent == None {
		if len(li.Areas) > 0 {
			sl.ReportError(li.Areas, "Areas", "areas", "empty_for_none", "")
		}
		if li.ParentArea != nil {
			sl.ReportError(li.ParentArea, "ParentArea", "parent_area", "null_for_none", "")
		}
	}
	if li.DateRange.End.Before(li.DateRange.Start) {
		sl.ReportError(li.DateRange, "DateRange", "date_range", "ordered", "")
	}
}

// Validate checks the shape invariants of the intent.
func (li LocationIntent) Validate() error {
	return validate.Struct(li)
}

// Default is the fail-closed intent for a reference date.
func Default(ref time.Time) LocationIntent {
	day := truncateDay(ref)
	return LocationIntent{
		Intent:    None,
		Areas:     []string{},
		DateRange: DateRange{Start: day, End: day},
	}
}

// AreaTerm picks the area name the resolver should work on. An empty result
// means the intent carries no area.
func (li LocationIntent) AreaTerm(query string) string {
	parent := ""
	if li.ParentArea != nil {
		parent = strings.TrimSpace(*li.ParentArea)
	}
	first := ""
	if len(li.Areas) > 0 {
		first = strings.TrimSpace(li.Areas[0])
	}

	switch li.Intent {
	case Single:
		return firstNonEmpty(first, parent, strings.TrimSpace(query))
	case SubAreas, Multi:
		return firstNonEmpty(parent, first, strings.TrimSpace(query))
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// wireIntent is the JSON shape the classification capability returns.
type wireIntent struct {
	Intent     *string  `json:"intent" validate:"required"`
	Level      *string  `json:"level"`
	Areas      []string `json:"areas"`
	ParentArea *string  `json:"parent_area"`
	DateRange  *struct {
		Start string `json:"start" validate:"required,datetime=2006-01-02"`
		End   string `json:"end" validate:"required,datetime=2006-01-02"`
	} `json:"date_range" validate:"required"`
}

// Parse decodes a classification response into a validated LocationIntent.
// Areas are trimmed, unknown levels are dropped and a reversed date range is swapped.
func Parse(text string) (LocationIntent, error) {
	var w wireIntent
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return LocationIntent{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validate.Struct(w); err != nil {
		return LocationIntent{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	start, _ := time.Parse(dateLayout, w.DateRange.Start)
	end, _ := time.Parse(dateLayout, w.DateRange.End)
	if end.Before(start) {
		start, end = end, start
	}

	li := LocationIntent{
		Intent:    Kind(strings.ToLower(strings.TrimSpace(*w.Intent))),
		Areas:     []string{},
		DateRange: DateRange{Start: start, End: end},
	}

	if w.Level != nil {
		lvl := Level(strings.ToLower(strings.TrimSpace(*w.Level)))
		switch lvl {
		case Province, City, Regency, District, Village:
			li.Level = &lvl
		}
	}

	if li.Intent != None {
		for _, a := range w.Areas {
			if a = strings.TrimSpace(a); a != "" {
				li.Areas = append(li.Areas, a)
			}
		}
		if w.ParentArea != nil {
			if p := strings.TrimSpace(*w.ParentArea); p != "" {
				li.ParentArea = &p
			}
		}
	}

	if err := li.Validate(); err != nil {
		return LocationIntent{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return li, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
