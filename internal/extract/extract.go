// Package extract pulls text out of RFP PDFs so they can be analyzed as raw
// text instead of being indexed by the backend.
package extract

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rfp-cli/internal/upload"
)

// Providers accepted by New.
const (
	ProviderLocal   = "local"
	ProviderMistral = "mistral"
)

// ErrNoText is returned when a PDF yields no text, as with scanned pages
// under the local provider.
var ErrNoText = eris.New("extract: no text found in PDF")

// Extractor extracts the text of a validated PDF.
type Extractor interface {
	ExtractText(ctx context.Context, f *upload.File) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
}

// New creates the Extractor named by cfg.Provider.
func New(cfg Config) (Extractor, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case ProviderMistral:
		if cfg.MistralKey == "" {
			return nil, eris.New("extract: mistral provider requires mistral_api_key")
		}
		return NewMistral(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("extract: unknown provider %q", cfg.Provider)
	}
}

func nonBlank(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
