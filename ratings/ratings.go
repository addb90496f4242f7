// Package ratings maps audit scores onto the good/ok/poor classes used by the
// terminal and PDF reports.
package ratings

import "math"

// Class names double as CSS classes in the report templates.
const (
	Good = "good"
	OK   = "ok"
	Poor = "poor"
)

// Thresholds are inclusive lower bounds on a 0-100 scale.
type Thresholds struct {
	Pass    int `json:"pass" yaml:"pass"`
	Average int `json:"average" yaml:"average"`
}

// Default is 80-100 good, 70-79 ok, 0-69 poor.
var Default = Thresholds{Pass: 80, Average: 70}

// WithDefaults fills unset bounds from Default.
func (t Thresholds) WithDefaults() Thresholds {
	if t.Pass <= 0 {
		t.Pass = Default.Pass
	}
	if t.Average <= 0 || t.Average > t.Pass {
		t.Average = Default.Average
		if t.Average > t.Pass {
			t.Average = t.Pass
		}
	}
	return t
}

// Round rounds a score up to a whole number. Float noise from rescaling 0-1
// scores (0.93*100 = 93.00000000000001) is dropped first.
func Round(score float64) int {
	return int(math.Ceil(math.Round(score*1000) / 1000))
}

// Classify rounds score up and compares the result against t.
func (t Thresholds) Classify(score float64) string {
	s := Round(score)
	switch {
	case s >= t.Pass:
		return Good
	case s >= t.Average:
		return OK
	}
	return Poor
}

// Grade is the wording used in notes for a class.
func Grade(class string) string {
	switch class {
	case Good:
		return "passes"
	case OK:
		return "needs improvement"
	}
	return "is poor"
}
