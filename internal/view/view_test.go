package view

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rfp-cli/internal/model"
	"github.com/sells-group/rfp-cli/internal/present"
)

func mustDoc(t *testing.T, raw string) *model.Document {
	t.Helper()
	doc, err := model.ParseDocument([]byte(raw))
	require.NoError(t, err)
	return doc
}

func TestBuild_SectionOrderAndTitles(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `{
		"custom_notes": {"note": "see appendix"},
		"bid_summary": {"client_name": {"value": "Acme Corp", "confidence": 0.9, "is_interpreted": false}},
		"strategic_summary": {}
	}`)

	v := Build(doc, present.DefaultFilter(), nil)

	require.Len(t, v.Sections, len(model.KnownSections)+1)
	for i, def := range model.KnownSections {
		assert.Equal(t, def.Key, v.Sections[i].Key)
		assert.Equal(t, def.Title, v.Sections[i].Title)
	}
	last := v.Sections[len(v.Sections)-1]
	assert.Equal(t, "custom_notes", last.Key)
	assert.Equal(t, "Custom Notes", last.Title)

	assert.True(t, v.Sections[0].Empty())
	bid := v.Sections[2]
	require.Len(t, bid.Rows, 1)
	assert.Equal(t, "Client Name", bid.Rows[0].Label)
	assert.Equal(t, "Acme Corp", bid.Rows[0].Presented.Text)
}

func TestBuild_StatsFollowFilter(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `{
		"key_dates": {
			"submission_deadline": {"value": "2025-01-31", "confidence": 0.95, "is_interpreted": false},
			"start_date": {"value": "Q3 2025", "confidence": 0.6, "is_interpreted": true},
			"site_visit_date": {"value": "maybe", "confidence": 0.2, "is_interpreted": true},
			"contract_award_date": {"value": "", "confidence": 0, "is_interpreted": false}
		}
	}`)

	v := Build(doc, present.Filter{ShowInterpreted: false, ConfidenceThreshold: 0.3}, nil)
	want := Stats{Shown: 1, NotSpecified: 1, HiddenLowConfidence: 1, HiddenInterpretation: 1}
	if diff := cmp.Diff(want, v.Stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, v.Stats.Total())

	all := Build(doc, present.DefaultFilter(), nil)
	assert.Equal(t, 3, all.Stats.Shown)
}

func TestBuild_NilDocument(t *testing.T) {
	t.Parallel()

	v := Build(nil, present.DefaultFilter(), nil)
	assert.Len(t, v.Sections, len(model.KnownSections))
	assert.Zero(t, v.Stats.Total())
}

func TestLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Client Name", Label("client_name"))
	assert.Equal(t, "Issuance Of Response To Bidder Questions", Label("issuance_of_response_to_bidder_questions"))
	assert.Equal(t, "Email", Label("email"))
}

func TestFormatSimilarity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "N/A", FormatSimilarity(nil))
	score := 0.8734
	assert.Equal(t, "87%", FormatSimilarity(&score))
	zero := 0.0
	assert.Equal(t, "0%", FormatSimilarity(&zero))
}

func TestPhrase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Breaking down the RFP…", Phrase(0))
	assert.Equal(t, Phrase(0), Phrase(PhraseCount()))
	assert.Equal(t, Phrase(PhraseCount()-1), Phrase(-1))
	assert.Equal(t, Phrase(1), PhraseAt(2*time.Second))
	assert.Equal(t, Phrase(0), PhraseAt(-time.Second))
}
