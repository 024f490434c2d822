package session

import (
	"bytes"
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/rfp-cli/internal/model"
	"github.com/sells-group/rfp-cli/internal/upload"
	"github.com/sells-group/rfp-cli/pkg/rfpapi"
)

// Result is a loaded analysis.
type Result struct {
	Session  Session
	Document *model.Document
	// Similarity is nil when the score could not be fetched.
	Similarity *float64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxUploadSize caps uploaded files.
func WithMaxUploadSize(n int64) Option {
	return func(o *Orchestrator) { o.maxSize = n }
}

// WithIDGenerator overrides session token generation.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

// Orchestrator drives the backend for uploads and analyses.
type Orchestrator struct {
	client  rfpapi.Client
	maxSize int64
	newID   func() string
}

// New creates an Orchestrator over client.
func New(client rfpapi.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:  client,
		maxSize: upload.DefaultMaxSize,
		newID:   NewID,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// UploadFile validates the PDF at path and uploads it under a new session.
func (o *Orchestrator) UploadFile(ctx context.Context, path string) (Session, error) {
	f, err := upload.Inspect(path, o.maxSize)
	if err != nil {
		return Session{}, &Error{Kind: KindInput, Msg: "Failed to upload file", Err: err}
	}
	return o.send(ctx, f)
}

// UploadBytes validates and uploads an in-memory PDF.
func (o *Orchestrator) UploadBytes(ctx context.Context, name string, data []byte) (Session, error) {
	f, err := upload.InspectBytes(name, data, o.maxSize)
	if err != nil {
		return Session{}, &Error{Kind: KindInput, Msg: "Failed to upload file", Err: err}
	}
	return o.send(ctx, f)
}

func (o *Orchestrator) send(ctx context.Context, f *upload.File) (Session, error) {
	s := Session{ID: o.newID(), Source: f.Name, Pages: f.Pages}

	resp, err := o.client.UploadPDF(ctx, rfpapi.UploadRequest{
		SessionID: s.ID,
		Filename:  f.Name,
		Content:   f.Data,
	})
	if err != nil {
		return Session{}, &Error{Kind: KindNetwork, Msg: "Failed to upload file", Err: err}
	}
	if resp.SessionID != "" {
		s.ID = resp.SessionID
	}
	if err := ValidateID(s.ID); err != nil {
		return Session{}, err
	}

	zap.L().Info("session: uploaded",
		zap.String("session_id", s.ID),
		zap.String("file", f.Name),
		zap.Int("pages", f.Pages),
		zap.Int64("bytes", f.Size),
	)
	return s, nil
}

// UploadText starts a session for pasted RFP text. No request is made.
func (o *Orchestrator) UploadText(text string) (Session, error) {
	if err := upload.ValidateText(text); err != nil {
		return Session{}, &Error{Kind: KindInput, Msg: "Failed to analyze text", Err: err}
	}
	return Session{ID: o.newID(), Source: model.SourceText, Text: text}, nil
}

// Analyze fetches the analysis document for s.
func (o *Orchestrator) Analyze(ctx context.Context, s Session) (*model.Document, error) {
	if err := ValidateID(s.ID); err != nil {
		return nil, err
	}

	req := rfpapi.AnalyzeRequest{SessionID: s.ID}
	if s.IsText() {
		req = rfpapi.AnalyzeRequest{Text: s.Text}
	}

	resp, err := o.client.Analyze(ctx, req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Msg: "Failed to fetch analysis", Err: err}
	}

	raw := bytes.TrimSpace(resp.Result)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, &Error{Kind: KindEmpty, Msg: "No analysis data available"}
	}
	doc, err := model.ParseDocument(raw)
	if err != nil {
		return nil, &Error{Kind: KindEmpty, Msg: "No analysis data available", Err: err}
	}
	if doc.IsEmpty() {
		return nil, &Error{Kind: KindEmpty, Msg: "No analysis data available"}
	}
	return doc, nil
}

// Similarity fetches the similarity score against existing bids.
func (o *Orchestrator) Similarity(ctx context.Context) (*float64, error) {
	resp, err := o.client.CompareIndexes(ctx)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Msg: "Failed to fetch similarity score", Err: err}
	}
	score := resp.SimilarityScore
	return &score, nil
}

// Load runs the analysis and similarity requests concurrently. A similarity
// failure is logged and leaves Result.Similarity nil.
func (o *Orchestrator) Load(ctx context.Context, s Session) (*Result, error) {
	if err := ValidateID(s.ID); err != nil {
		return nil, err
	}

	res := &Result{Session: s}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		doc, err := o.Analyze(gctx, s)
		if err != nil {
			return err
		}
		res.Document = doc
		return nil
	})

	g.Go(func() error {
		score, err := o.Similarity(gctx)
		if err != nil {
			if ctx.Err() == nil {
				zap.L().Warn("session: similarity unavailable",
					zap.String("session_id", s.ID),
					zap.Error(err),
				)
			}
			return nil
		}
		res.Similarity = score
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// Cleanup releases the backend session immediately.
func (o *Orchestrator) Cleanup(ctx context.Context, sessionID string) error {
	if err := ValidateID(sessionID); err != nil {
		return err
	}
	if err := o.client.CleanupSession(ctx, sessionID); err != nil {
		return &Error{Kind: KindNetwork, Msg: "Failed to clean up session", Err: err}
	}
	return nil
}

// Chat asks a question against the indexed documents.
func (o *Orchestrator) Chat(ctx context.Context, question string) (string, error) {
	resp, err := o.client.Chat(ctx, question)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Msg: "Failed to get an answer", Err: err}
	}
	return resp.Answer, nil
}
