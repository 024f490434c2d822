// Package view builds the single analysis view that every renderer draws:
// sections of presented fields, the legend, and the similarity score.
package view

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/rfp-cli/internal/model"
	"github.com/sells-group/rfp-cli/internal/present"
)

// NoData is shown for sections that carry no fields.
const NoData = "No data available"

// Row is one labelled field in a section.
type Row struct {
	Key       string            `json:"key" yaml:"key"`
	Label     string            `json:"label" yaml:"label"`
	Presented present.Presented `json:"presented" yaml:"presented"`
}

// Section is a titled group of rows.
type Section struct {
	Key   string `json:"key" yaml:"key"`
	Title string `json:"title" yaml:"title"`
	Rows  []Row  `json:"rows" yaml:"rows"`
}

// Empty reports whether the section has nothing to show.
func (s Section) Empty() bool {
	return len(s.Rows) == 0
}

// LegendEntry explains one confidence styling.
type LegendEntry struct {
	Tier  present.Tier `json:"tier,omitempty" yaml:"tier,omitempty"`
	Badge bool         `json:"badge,omitempty" yaml:"badge,omitempty"`
	Label string       `json:"label" yaml:"label"`
}

// Legend lists the confidence styles in display order.
var Legend = []LegendEntry{
	{Tier: present.TierHigh, Label: "High confidence (80-100%)"},
	{Tier: present.TierMedium, Label: "Medium confidence (50-80%)"},
	{Tier: present.TierLow, Label: "Low confidence (1-50%)"},
	{Badge: true, Label: "AI interpretation (not directly stated in RFP)"},
}

// Stats counts rows by outcome.
type Stats struct {
	Shown                int `json:"shown" yaml:"shown"`
	NotSpecified         int `json:"not_specified" yaml:"not_specified"`
	HiddenLowConfidence  int `json:"hidden_low_confidence" yaml:"hidden_low_confidence"`
	HiddenInterpretation int `json:"hidden_interpretation" yaml:"hidden_interpretation"`
}

// Total returns the number of rows counted.
func (s Stats) Total() int {
	return s.Shown + s.NotSpecified + s.HiddenLowConfidence + s.HiddenInterpretation
}

// View is the presented analysis for one session.
type View struct {
	SessionID  string         `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Filter     present.Filter `json:"filter" yaml:"filter"`
	Similarity string         `json:"similarity" yaml:"similarity"`
	Sections   []Section      `json:"sections" yaml:"sections"`
	Stats      Stats          `json:"stats" yaml:"stats"`
}

// Build presents every field of doc under filter. Known sections come first
// in their fixed order, then any other sections in document order.
func Build(doc *model.Document, filter present.Filter, similarity *float64) View {
	v := View{
		Filter:     filter,
		Similarity: FormatSimilarity(similarity),
	}

	known := make(map[string]bool, len(model.KnownSections))
	for _, def := range model.KnownSections {
		known[def.Key] = true
		s, _ := doc.Section(def.Key)
		v.Sections = append(v.Sections, buildSection(def.Key, def.Title, s, filter, &v.Stats))
	}
	if doc != nil {
		for _, s := range doc.Sections {
			if known[s.Key] {
				continue
			}
			v.Sections = append(v.Sections, buildSection(s.Key, Label(s.Key), s, filter, &v.Stats))
		}
	}
	return v
}

func buildSection(key, title string, s model.Section, filter present.Filter, stats *Stats) Section {
	out := Section{Key: key, Title: title}
	for _, nf := range s.Fields {
		p := present.Present(nf.Field, filter)
		count(stats, p.Outcome)
		out.Rows = append(out.Rows, Row{Key: nf.Name, Label: Label(nf.Name), Presented: p})
	}
	return out
}

func count(s *Stats, o present.Outcome) {
	switch o {
	case present.OutcomeValue:
		s.Shown++
	case present.OutcomeNotSpecified:
		s.NotSpecified++
	case present.OutcomeHiddenLowConfidence:
		s.HiddenLowConfidence++
	case present.OutcomeHiddenInterpretation:
		s.HiddenInterpretation++
	}
}

// Label turns a field key such as "client_name" into "Client Name".
// Casers hold state, so each call gets its own.
func Label(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

// FormatSimilarity renders a similarity score as a whole percent, or N/A.
func FormatSimilarity(score *float64) string {
	if score == nil {
		return "N/A"
	}
	return strconv.Itoa(int(math.Round(*score*100))) + "%"
}
