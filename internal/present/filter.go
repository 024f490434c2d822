package present

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Filter holds the viewer's display settings. It belongs to a single view and
// is never persisted.
type Filter struct {
	ShowInterpreted     bool    `json:"show_interpreted" yaml:"show_interpreted"`
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`
}

// DefaultFilter shows everything.
func DefaultFilter() Filter {
	return Filter{ShowInterpreted: true, ConfidenceThreshold: 0}
}

// ThresholdOption is one entry of the minimum-confidence selector.
type ThresholdOption struct {
	Value float64
	Label string
}

var thresholdOptions = []ThresholdOption{
	{Value: 0, Label: "Show all"},
	{Value: 0.3, Label: "Low confidence (30%+)"},
	{Value: 0.5, Label: "Medium confidence (50%+)"},
	{Value: 0.7, Label: "High confidence (70%+)"},
}

// ThresholdOptions returns the selector entries in ascending order.
func ThresholdOptions() []ThresholdOption {
	out := make([]ThresholdOption, len(thresholdOptions))
	copy(out, thresholdOptions)
	return out
}

// ThresholdLabel returns the selector label for a threshold, or a percent
// label for values outside the offered options.
func ThresholdLabel(v float64) string {
	for _, o := range thresholdOptions {
		if o.Value == v {
			return o.Label
		}
	}
	return strconv.FormatFloat(v*100, 'f', -1, 64) + "%+"
}

// ParseThreshold parses a threshold in [0,1].
func ParseThreshold(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "present: parse threshold %q", s)
	}
	if err := validateThreshold(v); err != nil {
		return 0, err
	}
	return v, nil
}

// Validate checks the threshold range.
func (f Filter) Validate() error {
	return validateThreshold(f.ConfidenceThreshold)
}

// NextThreshold returns the filter with the threshold advanced to the next
// selector option, wrapping to "Show all".
func (f Filter) NextThreshold() Filter {
	for _, o := range thresholdOptions {
		if o.Value > f.ConfidenceThreshold {
			f.ConfidenceThreshold = o.Value
			return f
		}
	}
	f.ConfidenceThreshold = thresholdOptions[0].Value
	return f
}

// ToggleInterpreted flips the show-interpreted setting.
func (f Filter) ToggleInterpreted() Filter {
	f.ShowInterpreted = !f.ShowInterpreted
	return f
}

func validateThreshold(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return eris.Errorf("present: confidence threshold %v outside [0,1]", v)
	}
	return nil
}
