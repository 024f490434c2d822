// Package mocks provides test doubles for the RFP backend client.
package mocks

import (
	"context"
	"encoding/json"

	mock "github.com/stretchr/testify/mock"

	rfpapi "github.com/sells-group/rfp-cli/pkg/rfpapi"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// UploadPDF provides a mock function with given fields: ctx, req
func (_m *MockClient) UploadPDF(ctx context.Context, req rfpapi.UploadRequest) (*rfpapi.UploadResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for UploadPDF")
	}

	var r0 *rfpapi.UploadResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, rfpapi.UploadRequest) (*rfpapi.UploadResponse, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, rfpapi.UploadRequest) *rfpapi.UploadResponse); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*rfpapi.UploadResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, rfpapi.UploadRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Analyze provides a mock function with given fields: ctx, req
func (_m *MockClient) Analyze(ctx context.Context, req rfpapi.AnalyzeRequest) (*rfpapi.AnalyzeResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Analyze")
	}

	var r0 *rfpapi.AnalyzeResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, rfpapi.AnalyzeRequest) (*rfpapi.AnalyzeResponse, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, rfpapi.AnalyzeRequest) *rfpapi.AnalyzeResponse); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*rfpapi.AnalyzeResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, rfpapi.AnalyzeRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// CompareIndexes provides a mock function with given fields: ctx
func (_m *MockClient) CompareIndexes(ctx context.Context) (*rfpapi.SimilarityResponse, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for CompareIndexes")
	}

	var r0 *rfpapi.SimilarityResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (*rfpapi.SimilarityResponse, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) *rfpapi.SimilarityResponse); ok {
		r0 = rf(ctx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*rfpapi.SimilarityResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// DownloadReport provides a mock function with given fields: ctx, rfpData
func (_m *MockClient) DownloadReport(ctx context.Context, rfpData json.RawMessage) ([]byte, error) {
	ret := _m.Called(ctx, rfpData)

	if len(ret) == 0 {
		panic("no return value specified for DownloadReport")
	}

	var r0 []byte
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, json.RawMessage) ([]byte, error)); ok {
		return rf(ctx, rfpData)
	}
	if rf, ok := ret.Get(0).(func(context.Context, json.RawMessage) []byte); ok {
		r0 = rf(ctx, rfpData)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]byte)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, json.RawMessage) error); ok {
		r1 = rf(ctx, rfpData)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// CleanupSession provides a mock function with given fields: ctx, sessionID
func (_m *MockClient) CleanupSession(ctx context.Context, sessionID string) error {
	ret := _m.Called(ctx, sessionID)

	if len(ret) == 0 {
		panic("no return value specified for CleanupSession")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string) error); ok {
		r0 = rf(ctx, sessionID)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Chat provides a mock function with given fields: ctx, question
func (_m *MockClient) Chat(ctx context.Context, question string) (*rfpapi.ChatResponse, error) {
	ret := _m.Called(ctx, question)

	if len(ret) == 0 {
		panic("no return value specified for Chat")
	}

	var r0 *rfpapi.ChatResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*rfpapi.ChatResponse, error)); ok {
		return rf(ctx, question)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *rfpapi.ChatResponse); ok {
		r0 = rf(ctx, question)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*rfpapi.ChatResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, question)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
