package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rfp-cli/internal/resilience"
	"github.com/sells-group/rfp-cli/internal/upload"
)

const (
	mistralEndpoint     = "https://api.mistral.ai/v1/ocr"
	defaultMistralModel = "mistral-ocr-latest"
)

// Mistral extracts text, including scanned pages, with the Mistral OCR API.
type Mistral struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	retry    resilience.RetryConfig
}

// NewMistral creates a Mistral extractor. An empty model uses the default.
func NewMistral(apiKey, model string) *Mistral {
	if model == "" {
		model = defaultMistralModel
	}
	return &Mistral{
		apiKey:   apiKey,
		model:    model,
		endpoint: mistralEndpoint,
		client:   &http.Client{Timeout: 2 * time.Minute},
		retry:    resilience.DefaultRetryConfig(),
	}
}

type ocrRequest struct {
	Model    string      `json:"model"`
	Document ocrDocument `json:"document"`
}

type ocrDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type ocrResponse struct {
	Pages []struct {
		Index    int    `json:"index"`
		Markdown string `json:"markdown"`
	} `json:"pages"`
}

// ExtractText sends the PDF as a data URL and joins the returned pages.
func (m *Mistral) ExtractText(ctx context.Context, f *upload.File) (string, error) {
	body, err := json.Marshal(ocrRequest{
		Model: m.model,
		Document: ocrDocument{
			Type:        "document_url",
			DocumentURL: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(f.Data),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "extract: marshal mistral request")
	}

	cfg := m.retry
	cfg.OnRetry = resilience.RetryLogger("mistral ocr")
	data, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrap(err, "extract: create mistral request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+m.apiKey)

		resp, err := m.client.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "extract: mistral request")
		}
		defer resp.Body.Close() //nolint:errcheck

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "extract: read mistral response")
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &resilience.StatusError{Endpoint: "mistral ocr", StatusCode: resp.StatusCode, Body: string(raw)}
		}
		return raw, nil
	})
	if err != nil {
		return "", err
	}

	var out ocrResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", eris.Wrap(err, "extract: unmarshal mistral response")
	}

	pages := make([]string, 0, len(out.Pages))
	for _, p := range out.Pages {
		pages = append(pages, p.Markdown)
	}
	return nonBlank(strings.Join(pages, "\n\n"))
}
