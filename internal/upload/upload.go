// Package upload validates RFP documents before they are sent for analysis.
package upload

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultMaxSize is the upload limit when none is configured.
const DefaultMaxSize int64 = 50 << 20

const pdfContentType = "application/pdf"

var (
	ErrNotPDF    = eris.New("upload: only PDF files are accepted")
	ErrTooLarge  = eris.New("upload: file exceeds size limit")
	ErrEmpty     = eris.New("upload: file is empty")
	ErrEmptyText = eris.New("upload: RFP text is required")
)

// File is a validated PDF ready to send.
type File struct {
	Name        string
	Size        int64
	ContentType string
	// Pages is zero when the page tree could not be read.
	Pages int
	Data  []byte
}

// Inspect reads and validates the PDF at path.
func Inspect(path string, maxSize int64) (*File, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrapf(err, "upload: stat %s", path)
	}
	if info.IsDir() {
		return nil, eris.Errorf("upload: %s is a directory", path)
	}
	if info.Size() > maxSize {
		return nil, eris.Wrapf(ErrTooLarge, "upload: %s is %d bytes", filepath.Base(path), info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "upload: read %s", path)
	}
	return InspectBytes(filepath.Base(path), data, maxSize)
}

// InspectBytes validates an in-memory upload.
func InspectBytes(name string, data []byte, maxSize int64) (*File, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return nil, eris.Wrapf(ErrNotPDF, "upload: %s", name)
	}
	if len(data) == 0 {
		return nil, eris.Wrapf(ErrEmpty, "upload: %s", name)
	}
	if int64(len(data)) > maxSize {
		return nil, eris.Wrapf(ErrTooLarge, "upload: %s is %d bytes", name, len(data))
	}

	ct := http.DetectContentType(data)
	if ct != pdfContentType {
		return nil, eris.Wrapf(ErrNotPDF, "upload: %s sniffed as %s", name, ct)
	}

	return &File{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: ct,
		Pages:       pageCount(name, data),
		Data:        data,
	}, nil
}

func pageCount(name string, data []byte) int {
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		zap.L().Warn("upload: could not read PDF page count",
			zap.String("file", name),
			zap.Error(err),
		)
		return 0
	}
	return n
}

// ValidateText checks raw RFP text input.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	return nil
}
