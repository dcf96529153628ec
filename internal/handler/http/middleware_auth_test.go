package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuth_RejectsUnauthenticatedRequests(t *testing.T) {
	router := newTestRouter(&fakeOnboardingService{createID: "rec-1"})

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header"},
		{name: "malformed header", header: "Bearer"},
		{name: "empty token", header: "Bearer "},
		{name: "unknown token", header: "Bearer not-the-right-one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/records/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuth_PassesLoginToHandlers(t *testing.T) {
	router := newTestRouter(&fakeOnboardingService{createID: "rec-1"})

	rec := doRequest(t, router, http.MethodPost, "/api/records/", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestTraceID_EchoedAndGenerated(t *testing.T) {
	router := newTestRouter(&fakeOnboardingService{createID: "rec-1"})

	req := httptest.NewRequest(http.MethodPost, "/api/records/", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set(traceIDHeader, "trace-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "trace-123", rec.Header().Get(traceIDHeader))

	req = httptest.NewRequest(http.MethodPost, "/api/records/", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get(traceIDHeader))
}
