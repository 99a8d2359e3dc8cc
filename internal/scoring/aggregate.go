package scoring

import (
	"fmt"
	"math"
)

// PendingLabel is shown for records without any computed dimension.
const PendingLabel = "Pending Analysis"

// Tier widths below the posting threshold.
const (
	goodMargin = 20
	fairMargin = 40
)

// Classification is the display class of a score against a posting threshold.
type Classification int

const (
	PendingAnalysis Classification = iota
	Strong
	Good
	Fair
	Weak
)

func (c Classification) String() string {
	switch c {
	case PendingAnalysis:
		return "pending_analysis"
	case Strong:
		return "strong"
	case Good:
		return "good"
	case Fair:
		return "fair"
	case Weak:
		return "weak"
	default:
		return "unknown"
	}
}

// Average returns the mean of the present dimensions.
// The divisor is the number of present dimensions, never the schema size,
// so a missing dimension does not count as zero. ok is false when nothing is present.
func Average(r Record) (avg float64, ok bool) {
	values := r.Present()
	if len(values) == 0 {
		return 0, false
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values)), true
}

// Classify places avg into a tier relative to threshold.
func Classify(avg, threshold float64) Classification {
	switch {
	case avg >= threshold:
		return Strong
	case avg >= threshold-goodMargin:
		return Good
	case avg >= threshold-fairMargin:
		return Fair
	default:
		return Weak
	}
}

// ClassifyRecord is Classify with the pending state checked first.
func ClassifyRecord(r Record, threshold float64) Classification {
	avg, ok := Average(r)
	if !ok {
		return PendingAnalysis
	}
	return Classify(avg, threshold)
}

// Label renders an average as a rounded percentage, e.g. "73%".
// Rounding is math.Round (half away from zero).
func Label(avg float64, ok bool) string {
	if !ok {
		return PendingLabel
	}
	return fmt.Sprintf("%d%%", int(math.Round(avg)))
}

// RecordLabel parses raw and labels its average.
func RecordLabel(raw string) string {
	return Label(Average(Parse(raw)))
}
