// Package rfpapi provides a client for the RFP analysis backend.
package rfpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/rfp-cli/internal/resilience"
)

// Endpoint paths relative to the base URL.
const (
	PathUploadPDF      = "/api/rfp/upload_pdf/"
	PathAnalyze        = "/api/rfp/analyze/"
	PathCompareIndexes = "/api/rfp/compare-indexes/"
	PathDownloadReport = "/api/rfp/download-report/"
	PathCleanupSession = "/api/rfp/cleanup-session/"
	PathChat           = "/api/rfp/chat/"
)

// Client defines the analysis backend operations.
type Client interface {
	// UploadPDF sends a PDF for indexing under the given session.
	UploadPDF(ctx context.Context, req UploadRequest) (*UploadResponse, error)
	// Analyze requests the analysis document for a session or raw text.
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error)
	// CompareIndexes returns the similarity against the existing bid repository.
	CompareIndexes(ctx context.Context) (*SimilarityResponse, error)
	// DownloadReport renders the analysis document as an XLSX workbook.
	DownloadReport(ctx context.Context, rfpData json.RawMessage) ([]byte, error)
	// CleanupSession releases backend state for a session.
	CleanupSession(ctx context.Context, sessionID string) error
	// Chat asks a question against the indexed RFP documents.
	Chat(ctx context.Context, question string) (*ChatResponse, error)
}

// UploadRequest is a PDF upload.
type UploadRequest struct {
	SessionID string
	Filename  string
	Content   []byte
}

// UploadResponse is the upload_pdf reply.
type UploadResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// AnalyzeRequest selects what to analyze: an uploaded session or raw text.
type AnalyzeRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"rfp_text,omitempty"`
}

// AnalyzeResponse is the analyze reply. Result is left raw so callers can
// decode it with key order intact.
type AnalyzeResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// SimilarityResponse is the compare-indexes reply.
type SimilarityResponse struct {
	Success                bool    `json:"success"`
	SimilarityScore        float64 `json:"similarity_score"`
	TotalDocumentsCompared int     `json:"total_documents_compared,omitempty"`
	Error                  string  `json:"error,omitempty"`
}

// ChatResponse is the chat reply.
type ChatResponse struct {
	Success bool   `json:"success"`
	Answer  string `json:"answer"`
	Error   string `json:"error,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithRateLimit caps requests per second; zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *httpClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
	limiter *rate.Limiter
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			// Analysis runs an LLM pipeline server-side and can take minutes.
			Timeout: 5 * time.Minute,
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request is rebuilt on every attempt so bodies can be replayed.
type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	accept      string
	// once marks requests that start work on the backend; they are only
	// retried when the backend never saw them.
	once bool
}

func (c *httpClient) do(ctx context.Context, r request) ([]byte, error) {
	cfg := c.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(r.path)
	}
	if r.once && cfg.ShouldRetry == nil {
		cfg.ShouldRetry = resilience.IsUnprocessed
	}
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "rfpapi: rate limit wait")
			}
		}

		var body io.Reader
		if r.body != nil {
			body = bytes.NewReader(r.body)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
		if err != nil {
			return nil, eris.Wrapf(err, "rfpapi: create request %s", r.path)
		}
		if r.contentType != "" {
			req.Header.Set("Content-Type", r.contentType)
		}
		accept := r.accept
		if accept == "" {
			accept = "application/json"
		}
		req.Header.Set("Accept", accept)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrapf(err, "rfpapi: %s %s", r.method, r.path)
		}
		defer resp.Body.Close() //nolint:errcheck

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrapf(err, "rfpapi: read response %s", r.path)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &resilience.StatusError{Endpoint: r.path, StatusCode: resp.StatusCode, Body: string(data)}
		}
		return data, nil
	})
}

func (c *httpClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	return c.doJSONRequest(ctx, request{method: method, path: path}, in, out)
}

func (c *httpClient) doJSONRequest(ctx context.Context, r request, in, out any) error {
	path := r.path
	var body []byte
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return eris.Wrapf(err, "rfpapi: marshal request %s", path)
		}
		body = b
		contentType = "application/json"
	}
	r.body, r.contentType = body, contentType
	data, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrapf(err, "rfpapi: unmarshal response %s", path)
	}
	return nil
}

func (c *httpClient) UploadPDF(ctx context.Context, req UploadRequest) (*UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if req.SessionID != "" {
		if err := mw.WriteField("session_id", req.SessionID); err != nil {
			return nil, eris.Wrap(err, "rfpapi: write session field")
		}
	}
	part, err := mw.CreateFormFile("file", req.Filename)
	if err != nil {
		return nil, eris.Wrap(err, "rfpapi: create form file")
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, eris.Wrap(err, "rfpapi: write form file")
	}
	if err := mw.Close(); err != nil {
		return nil, eris.Wrap(err, "rfpapi: close multipart")
	}

	data, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        PathUploadPDF,
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
		once:        true,
	})
	if err != nil {
		return nil, err
	}

	var out UploadResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "rfpapi: unmarshal upload response")
	}
	if !out.Success {
		return &out, eris.Errorf("rfpapi: upload rejected: %s", firstNonEmpty(out.Error, out.Message, "no reason given"))
	}
	return &out, nil
}

func (c *httpClient) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	var out AnalyzeResponse
	if err := c.doJSONRequest(ctx, request{method: http.MethodPost, path: PathAnalyze, once: true}, req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return &out, eris.Errorf("rfpapi: analysis failed: %s", firstNonEmpty(out.Error, "no reason given"))
	}
	return &out, nil
}

func (c *httpClient) CompareIndexes(ctx context.Context) (*SimilarityResponse, error) {
	var out SimilarityResponse
	if err := c.doJSON(ctx, http.MethodGet, PathCompareIndexes, nil, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return &out, eris.Errorf("rfpapi: similarity failed: %s", firstNonEmpty(out.Error, "no reason given"))
	}
	return &out, nil
}

func (c *httpClient) DownloadReport(ctx context.Context, rfpData json.RawMessage) ([]byte, error) {
	body, err := json.Marshal(struct {
		RFPData json.RawMessage `json:"rfpData"`
	}{rfpData})
	if err != nil {
		return nil, eris.Wrap(err, "rfpapi: marshal report request")
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        PathDownloadReport,
		body:        body,
		contentType: "application/json",
		accept:      "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	})
}

func (c *httpClient) CleanupSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return eris.New("rfpapi: cleanup requires a session id")
	}
	return c.doJSON(ctx, http.MethodPost, PathCleanupSession, map[string]string{"session_id": sessionID}, nil)
}

func (c *httpClient) Chat(ctx context.Context, question string) (*ChatResponse, error) {
	if strings.TrimSpace(question) == "" {
		return nil, eris.New("rfpapi: question is required")
	}
	var out ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, PathChat, map[string]string{"question": question}, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return &out, eris.Errorf("rfpapi: chat failed: %s", firstNonEmpty(out.Error, "no reason given"))
	}
	return &out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
