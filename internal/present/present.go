// Package present decides how a single analysis field is displayed under the
// viewer's confidence and interpretation filters.
package present

import (
	"math"

	"github.com/sells-group/rfp-cli/internal/model"
)

// Placeholder texts shown instead of a field value.
const (
	NotSpecified         = "Not specified"
	HiddenLowConfidence  = "Hidden (low confidence)"
	HiddenInterpretation = "Hidden (interpretation)"
)

// Outcome is the display decision for a field.
type Outcome string

const (
	OutcomeValue                Outcome = "value"
	OutcomeNotSpecified         Outcome = "not_specified"
	OutcomeHiddenLowConfidence  Outcome = "hidden_low_confidence"
	OutcomeHiddenInterpretation Outcome = "hidden_interpretation"
)

// Tier is the visual weight of a confidence indicator.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
	TierNone   Tier = "none"
)

// TierOf classifies a confidence score. All bounds are strict.
func TierOf(confidence float64) Tier {
	switch {
	case confidence > 0.8:
		return TierHigh
	case confidence > 0.5:
		return TierMedium
	case confidence > 0:
		return TierLow
	default:
		return TierNone
	}
}

// Indicator is the confidence UI attached to a shown structured field.
type Indicator struct {
	Confidence  float64 `json:"confidence" yaml:"confidence"`
	Percent     int     `json:"percent" yaml:"percent"`
	Tier        Tier    `json:"tier" yaml:"tier"`
	Interpreted bool    `json:"interpreted" yaml:"interpreted"`
}

// Presented is the display form of one field.
type Presented struct {
	Outcome   Outcome    `json:"outcome" yaml:"outcome"`
	Text      string     `json:"text" yaml:"text"`
	Indicator *Indicator `json:"indicator,omitempty" yaml:"indicator,omitempty"`
}

// Visible reports whether the field value itself is shown.
func (p Presented) Visible() bool {
	return p.Outcome == OutcomeValue
}

// Present applies the filter to a field. Rules are checked in order and the
// first match wins; the result depends only on the arguments.
func Present(f model.Field, filter Filter) Presented {
	if f.Shape == model.ShapeLegacy {
		if f.Value == "" {
			return placeholder(OutcomeNotSpecified, NotSpecified)
		}
		return Presented{Outcome: OutcomeValue, Text: f.Value}
	}

	if f.IsEmpty() {
		return placeholder(OutcomeNotSpecified, NotSpecified)
	}

	if f.Confidence < filter.ConfidenceThreshold {
		return placeholder(OutcomeHiddenLowConfidence, HiddenLowConfidence)
	}

	if f.IsInterpreted && !filter.ShowInterpreted {
		return placeholder(OutcomeHiddenInterpretation, HiddenInterpretation)
	}

	return Presented{
		Outcome: OutcomeValue,
		Text:    f.Value,
		Indicator: &Indicator{
			Confidence:  f.Confidence,
			Percent:     int(math.Round(f.Confidence * 100)),
			Tier:        TierOf(f.Confidence),
			Interpreted: f.IsInterpreted,
		},
	}
}

func placeholder(o Outcome, text string) Presented {
	return Presented{Outcome: o, Text: text}
}
