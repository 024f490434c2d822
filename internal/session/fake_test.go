package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sells-group/rfp-cli/pkg/rfpapi"
)

// fakeClient is an in-memory rfpapi.Client.
type fakeClient struct {
	mu sync.Mutex

	uploadResp *rfpapi.UploadResponse
	uploadErr  error
	uploads    []rfpapi.UploadRequest

	analyzeResult json.RawMessage
	analyzeErr    error
	analyzeReqs   []rfpapi.AnalyzeRequest

	similarity    float64
	similarityErr error

	cleanupErr error
	cleaned    []string

	answer string
}

var _ rfpapi.Client = (*fakeClient)(nil)

func (f *fakeClient) UploadPDF(_ context.Context, req rfpapi.UploadRequest) (*rfpapi.UploadResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, req)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if f.uploadResp != nil {
		return f.uploadResp, nil
	}
	return &rfpapi.UploadResponse{Success: true}, nil
}

func (f *fakeClient) Analyze(ctx context.Context, req rfpapi.AnalyzeRequest) (*rfpapi.AnalyzeResponse, error) {
	f.mu.Lock()
	f.analyzeReqs = append(f.analyzeReqs, req)
	result, err := f.analyzeResult, f.analyzeErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return &rfpapi.AnalyzeResponse{Success: true, Result: result}, nil
}

func (f *fakeClient) CompareIndexes(_ context.Context) (*rfpapi.SimilarityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.similarityErr != nil {
		return nil, f.similarityErr
	}
	return &rfpapi.SimilarityResponse{Success: true, SimilarityScore: f.similarity}, nil
}

func (f *fakeClient) DownloadReport(_ context.Context, _ json.RawMessage) ([]byte, error) {
	return []byte("PK"), nil
}

func (f *fakeClient) CleanupSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned = append(f.cleaned, id)
	return f.cleanupErr
}

func (f *fakeClient) Chat(_ context.Context, _ string) (*rfpapi.ChatResponse, error) {
	return &rfpapi.ChatResponse{Success: true, Answer: f.answer}, nil
}

func (f *fakeClient) cleanedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cleaned...)
}
