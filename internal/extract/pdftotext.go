package extract

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rfp-cli/internal/upload"
)

// PdfToText extracts text with the poppler pdftotext tool.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText. An empty binPath uses "pdftotext" from PATH.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractText pipes the PDF through pdftotext -layout.
func (p *PdfToText) ExtractText(ctx context.Context, f *upload.File) (string, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", "-", "-")
	cmd.Stdin = bytes.NewReader(f.Data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "extract: pdftotext %s: %s", f.Name, strings.TrimSpace(stderr.String()))
	}
	return nonBlank(stdout.String())
}
