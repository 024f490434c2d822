// Package session sequences the upload, analysis, similarity and cleanup
// calls for one RFP session.
package session

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/sells-group/rfp-cli/internal/model"
)

// Session identifies one analysis on the backend. It is passed explicitly to
// every call; nothing is kept in package state.
type Session struct {
	ID string
	// Source is the uploaded file name, or model.SourceText.
	Source string
	// Text holds the RFP body for text sessions.
	Text  string
	Pages int
}

// IsText reports whether the session analyzes pasted text.
func (s Session) IsText() bool { return s.Source == model.SourceText }

// NewID returns a fresh session token.
func NewID() string { return uuid.NewString() }

// ValidateID rejects missing and malformed tokens. Tokens end up in URL paths
// and form fields, so whitespace, control characters and slashes are refused.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &Error{Kind: KindSession, Msg: "No session ID provided"}
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == '/' || r == '?' || r == '#' {
			return &Error{Kind: KindSession, Msg: "Invalid session ID " + strconv.Quote(truncate(id, 64))}
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
