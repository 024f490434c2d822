// Package store persists analysis history so sessions can be revisited
// without calling the backend again.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rfp-cli/internal/model"
)

// ErrNotFound is returned when an analysis does not exist.
var ErrNotFound = eris.New("store: analysis not found")

// ListFilter specifies criteria for listing analyses.
type ListFilter struct {
	// Source matches an uploaded file name or model.SourceText.
	Source string `json:"source,omitempty"`
	// ActiveOnly excludes sessions already cleaned up on the backend.
	ActiveOnly bool `json:"active_only,omitempty"`
	Limit      int  `json:"limit,omitempty"`
	Offset     int  `json:"offset,omitempty"`
}

func (f ListFilter) limit() int {
	if f.Limit <= 0 {
		return 50
	}
	return f.Limit
}

// Store defines persistence for analysis history.
type Store interface {
	// SaveAnalysis inserts a, replacing any stored analysis with the same ID.
	SaveAnalysis(ctx context.Context, a *model.Analysis) error
	GetAnalysis(ctx context.Context, id string) (*model.Analysis, error)
	// ListAnalyses returns analyses newest first.
	ListAnalyses(ctx context.Context, filter ListFilter) ([]model.Analysis, error)
	MarkCleanedUp(ctx context.Context, id string, at time.Time) error
	DeleteAnalysis(ctx context.Context, id string) error

	Migrate(ctx context.Context) error
	Close() error
}

func validate(a *model.Analysis) error {
	if a == nil {
		return eris.New("store: nil analysis")
	}
	if a.ID == "" {
		return eris.New("store: analysis id is required")
	}
	return nil
}
