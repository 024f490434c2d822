package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rfp-cli/internal/model"
	"github.com/sells-group/rfp-cli/pkg/rfpapi"
)

const analysisJSON = `{
	"overview": {"summary": {"value": "CRM rollout", "confidence": 0.9, "is_interpreted": false}},
	"commercials": {"budget": "$500,000"}
}`

func fixedID(id string) Option {
	return WithIDGenerator(func() string { return id })
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rfp.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%stub\n"), 0o600))
	return path
}

func TestUploadFile_UsesGeneratedID(t *testing.T) {
	fc := &fakeClient{}
	o := New(fc, fixedID("tok-1"))

	s, err := o.UploadFile(context.Background(), writePDF(t))
	require.NoError(t, err)
	assert.Equal(t, "tok-1", s.ID)
	assert.Equal(t, "rfp.pdf", s.Source)
	assert.False(t, s.IsText())

	require.Len(t, fc.uploads, 1)
	assert.Equal(t, "tok-1", fc.uploads[0].SessionID)
	assert.Equal(t, "rfp.pdf", fc.uploads[0].Filename)
}

func TestUploadFile_BackendTokenWins(t *testing.T) {
	fc := &fakeClient{uploadResp: &rfpapi.UploadResponse{Success: true, SessionID: "server-tok"}}
	o := New(fc, fixedID("tok-1"))

	s, err := o.UploadFile(context.Background(), writePDF(t))
	require.NoError(t, err)
	assert.Equal(t, "server-tok", s.ID)
}

func TestUploadFile_MalformedBackendToken(t *testing.T) {
	fc := &fakeClient{uploadResp: &rfpapi.UploadResponse{Success: true, SessionID: "bad token"}}
	o := New(fc)

	_, err := o.UploadFile(context.Background(), writePDF(t))
	require.Error(t, err)
	assert.Equal(t, KindSession, KindOf(err))
}

func TestUploadFile_InvalidFile(t *testing.T) {
	fc := &fakeClient{}
	o := New(fc)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	_, err := o.UploadFile(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, KindInput, KindOf(err))
	assert.Empty(t, fc.uploads)
}

func TestUploadFile_NetworkFailure(t *testing.T) {
	fc := &fakeClient{uploadErr: errors.New("dial tcp: connection refused")}
	o := New(fc)

	_, err := o.UploadFile(context.Background(), writePDF(t))
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Contains(t, Message(err), "Failed to upload file")
}

func TestUploadText(t *testing.T) {
	o := New(&fakeClient{}, fixedID("tok-2"))

	s, err := o.UploadText("Supply 40 laptops")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", s.ID)
	assert.True(t, s.IsText())

	_, err = o.UploadText("   ")
	require.Error(t, err)
	assert.Equal(t, KindInput, KindOf(err))
}

func TestAnalyze_SessionRequest(t *testing.T) {
	fc := &fakeClient{analyzeResult: json.RawMessage(analysisJSON)}
	o := New(fc)

	doc, err := o.Analyze(context.Background(), Session{ID: "tok", Source: "rfp.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "CRM rollout", doc.Lookup("overview", "summary").Value)
	assert.Equal(t, []rfpapi.AnalyzeRequest{{SessionID: "tok"}}, fc.analyzeReqs)
}

func TestAnalyze_TextRequest(t *testing.T) {
	fc := &fakeClient{analyzeResult: json.RawMessage(analysisJSON)}
	o := New(fc)

	_, err := o.Analyze(context.Background(), Session{ID: "tok", Source: model.SourceText, Text: "RFP body"})
	require.NoError(t, err)
	assert.Equal(t, []rfpapi.AnalyzeRequest{{Text: "RFP body"}}, fc.analyzeReqs)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		client  *fakeClient
		want    Kind
	}{
		{"missing token", Session{}, &fakeClient{}, KindSession},
		{"malformed token", Session{ID: "a/b"}, &fakeClient{}, KindSession},
		{"backend failure", Session{ID: "tok"}, &fakeClient{analyzeErr: errors.New("status 500")}, KindNetwork},
		{"no result", Session{ID: "tok"}, &fakeClient{}, KindEmpty},
		{"null result", Session{ID: "tok"}, &fakeClient{analyzeResult: json.RawMessage("null")}, KindEmpty},
		{"empty object", Session{ID: "tok"}, &fakeClient{analyzeResult: json.RawMessage("{}")}, KindEmpty},
		{"only empty sections", Session{ID: "tok"}, &fakeClient{analyzeResult: json.RawMessage(`{"overview":{}}`)}, KindEmpty},
		{"not an object", Session{ID: "tok"}, &fakeClient{analyzeResult: json.RawMessage(`[1,2]`)}, KindEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.client).Analyze(context.Background(), tt.session)
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestLoad_WithSimilarity(t *testing.T) {
	fc := &fakeClient{analyzeResult: json.RawMessage(analysisJSON), similarity: 0.42}
	o := New(fc)

	res, err := o.Load(context.Background(), Session{ID: "tok"})
	require.NoError(t, err)
	require.NotNil(t, res.Document)
	require.NotNil(t, res.Similarity)
	assert.InDelta(t, 0.42, *res.Similarity, 1e-9)
}

func TestLoad_SimilarityFailureIsNotFatal(t *testing.T) {
	fc := &fakeClient{analyzeResult: json.RawMessage(analysisJSON), similarityErr: errors.New("index missing")}
	o := New(fc)

	res, err := o.Load(context.Background(), Session{ID: "tok"})
	require.NoError(t, err)
	assert.NotNil(t, res.Document)
	assert.Nil(t, res.Similarity)
}

func TestLoad_AnalysisFailure(t *testing.T) {
	fc := &fakeClient{analyzeErr: errors.New("boom")}
	_, err := New(fc).Load(context.Background(), Session{ID: "tok"})
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Equal(t, "Failed to fetch analysis: boom", Message(err))
}

func TestLoad_MissingToken(t *testing.T) {
	_, err := New(&fakeClient{}).Load(context.Background(), Session{})
	require.Error(t, err)
	assert.Equal(t, KindSession, KindOf(err))
	assert.Equal(t, "No session ID provided", Message(err))
}

func TestCleanupAndChat(t *testing.T) {
	fc := &fakeClient{answer: "Dec 31"}
	o := New(fc)

	require.NoError(t, o.Cleanup(context.Background(), "tok"))
	assert.Equal(t, []string{"tok"}, fc.cleanedIDs())
	assert.Equal(t, KindSession, KindOf(o.Cleanup(context.Background(), "")))

	answer, err := o.Chat(context.Background(), "deadline?")
	require.NoError(t, err)
	assert.Equal(t, "Dec 31", answer)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "network", KindNetwork.String())
	assert.Equal(t, "session", KindSession.String())
	assert.Equal(t, "empty", KindEmpty.String())
	assert.Equal(t, "input", KindInput.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
	assert.Equal(t, KindNetwork, KindOf(errors.New("plain")))
	assert.Empty(t, Message(nil))
}
