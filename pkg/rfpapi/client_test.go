package rfpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rfp-cli/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestUploadPDF_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathUploadPDF, r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "sess-1", r.FormValue("session_id"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close() //nolint:errcheck
		assert.Equal(t, "bid.pdf", hdr.Filename)
		body, _ := io.ReadAll(f)
		assert.Equal(t, "%PDF-1.4", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"session_id":"sess-1","message":"indexed"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.UploadPDF(context.Background(), UploadRequest{
		SessionID: "sess-1",
		Filename:  "bid.pdf",
		Content:   []byte("%PDF-1.4"),
	})
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, "sess-1", got.SessionID)
}

func TestUploadPDF_Rejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"not a pdf"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.UploadPDF(context.Background(), UploadRequest{Filename: "x.pdf", Content: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a pdf")
	require.NotNil(t, got)
	assert.False(t, got.Success)
}

func TestAnalyze_KeepsRawResult(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathAnalyze, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req AnalyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sess-2", req.SessionID)

		_, _ = w.Write([]byte(`{"success":true,"result":{"b":{},"a":{}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.Analyze(context.Background(), AnalyzeRequest{SessionID: "sess-2"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":{},"a":{}}`, string(got.Result))
	assert.Equal(t, `{"b":{},"a":{}}`, string(got.Result))
}

func TestAnalyze_TextBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"rfp_text":"Deliver 40 laptops"}`, string(raw))
		_, _ = w.Write([]byte(`{"success":true,"result":{}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Analyze(context.Background(), AnalyzeRequest{Text: "Deliver 40 laptops"})
	require.NoError(t, err)
}

func TestAnalyze_RetriesTransient(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"result":{}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	_, err := c.Analyze(context.Background(), AnalyzeRequest{SessionID: "s"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAnalyze_NoRetryOnTimeout(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL,
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
		WithRetry(fastRetry()),
	)
	_, err := c.Analyze(context.Background(), AnalyzeRequest{SessionID: "s"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnalyze_NoRetryOnGatewayTimeout(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	_, err := c.Analyze(context.Background(), AnalyzeRequest{Text: "Supply laptops"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUploadPDF_RetriesOnlyUnprocessed(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	_, err := c.UploadPDF(context.Background(), UploadRequest{Filename: "bid.pdf", Content: []byte("%PDF-1.4")})
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCompareIndexes_RetriesGatewayTimeout(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"similarity_score":0.4}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	got, err := c.CompareIndexes(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.4, got.SimilarityScore, 1e-9)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnalyze_NoRetryOnClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"session not found"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	_, err := c.Analyze(context.Background(), AnalyzeRequest{SessionID: "gone"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load())

	var se *resilience.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}

func TestAnalyze_BackendFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"model unavailable"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Analyze(context.Background(), AnalyzeRequest{SessionID: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestCompareIndexes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, PathCompareIndexes, r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"similarity_score":0.734,"total_documents_compared":12}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.CompareIndexes(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.734, got.SimilarityScore, 1e-9)
	assert.Equal(t, 12, got.TotalDocumentsCompared)
}

func TestDownloadReport(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathDownloadReport, r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"rfpData":{"overview":{}}}`, string(raw))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = w.Write([]byte("PK\x03\x04"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.DownloadReport(context.Background(), json.RawMessage(`{"overview":{}}`))
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04"), got)
}

func TestCleanupSession(t *testing.T) {
	t.Parallel()

	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotID = body["session_id"]
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.CleanupSession(context.Background(), "sess-9"))
	assert.Equal(t, "sess-9", gotID)

	assert.Error(t, c.CleanupSession(context.Background(), ""))
}

func TestChat(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "When is the deadline?", body["question"])
		_, _ = w.Write([]byte(`{"success":true,"answer":"March 3"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.Chat(context.Background(), "When is the deadline?")
	require.NoError(t, err)
	assert.Equal(t, "March 3", got.Answer)

	_, err = c.Chat(context.Background(), "   ")
	assert.Error(t, err)
}

func TestContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	_, err := c.CompareIndexes(ctx)
	require.Error(t, err)
}

func TestNewClient_TrimsBaseURL(t *testing.T) {
	t.Parallel()

	c := NewClient("http://localhost:8000/", WithRateLimit(5), WithHTTPClient(&http.Client{Timeout: time.Second}))
	hc, ok := c.(*httpClient)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8000", hc.baseURL)
	assert.NotNil(t, hc.limiter)
	assert.Equal(t, time.Second, hc.http.Timeout)

	off := NewClient("http://x", WithRateLimit(0)).(*httpClient)
	assert.Nil(t, off.limiter)
}
