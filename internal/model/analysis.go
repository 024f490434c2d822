package model

import "time"

// SourceText marks analyses run from pasted text rather than an uploaded file.
const SourceText = "text"

// Analysis is a stored analysis result keyed by its session token.
type Analysis struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Document    *Document  `json:"document"`
	Similarity  *float64   `json:"similarity,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CleanedUpAt *time.Time `json:"cleaned_up_at,omitempty"`
}

// IsCleanedUp reports whether the backend session has been released.
func (a *Analysis) IsCleanedUp() bool {
	return a.CleanedUpAt != nil
}
