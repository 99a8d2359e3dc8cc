// Package scoring turns raw match-score records into an average, a label and a
// threshold-relative classification.
package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Keys used by the recruitment service in serialized score records.
const (
	ExperienceKey = "experience_score"
	SkillsKey     = "skills_score"
	EducationKey  = "education_score"
	OtherKey      = "other_score"
)

// ErrMalformedRecord is returned by Decode when the payload is not a JSON object.
var ErrMalformedRecord = errors.New("malformed score record")

// Record holds the per-dimension match percentages of one application.
// A nil field means the dimension has not been computed yet.
type Record struct {
	Experience *float64
	Skills     *float64
	Education  *float64
	Other      *float64
}

// Dimension is a named score of a record.
type Dimension struct {
	Name  string
	Score *float64
}

// Dimensions returns the four dimensions in display order.
func (r Record) Dimensions() []Dimension {
	return []Dimension{
		{Name: "Experience", Score: r.Experience},
		{Name: "Skills", Score: r.Skills},
		{Name: "Education", Score: r.Education},
		{Name: "Other", Score: r.Other},
	}
}

// Present returns the values of the dimensions that are set.
func (r Record) Present() []float64 {
	values := make([]float64, 0, 4)
	for _, d := range r.Dimensions() {
		if d.Score != nil {
			values = append(values, *d.Score)
		}
	}
	return values
}

// Empty reports whether no dimension has been computed.
func (r Record) Empty() bool {
	return len(r.Present()) == 0
}

// Decode parses the serialized form of a record.
// Unknown keys are ignored. Null, non-numeric and non-finite values count as absent.
func Decode(raw string) (Record, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Record{}, nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	return Record{
		Experience: coerceScore(data[ExperienceKey]),
		Skills:     coerceScore(data[SkillsKey]),
		Education:  coerceScore(data[EducationKey]),
		Other:      coerceScore(data[OtherKey]),
	}, nil
}

// Parse is Decode that never fails: a malformed payload yields the empty record,
// which later renders as "Pending Analysis".
func Parse(raw string) Record {
	record, err := Decode(raw)
	if err != nil {
		return Record{}
	}
	return record
}

func coerceScore(v any) *float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(val), "%")
		if trimmed == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}

	return &f
}
