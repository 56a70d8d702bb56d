package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/gridwatch/internal/core/openf1"
	"github.com/gridwatch/gridwatch/internal/server/middleware"
)

func TestFromUpstreamMapsClientErrors(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDContextKey, "req-123")

	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{
			name:   "rate limited",
			err:    &openf1.RateLimitExceededError{Endpoint: "sessions", Retries: 3},
			code:   CodeRateLimited,
			status: http.StatusTooManyRequests,
		},
		{
			name:   "upstream http",
			err:    fmt.Errorf("lookup: %w", &openf1.UpstreamHTTPError{Endpoint: "drivers", StatusCode: 500}),
			code:   CodeExternalService,
			status: http.StatusBadGateway,
		},
		{
			name:   "unknown endpoint",
			err:    &openf1.UnknownEndpointError{Endpoint: "telemetry"},
			code:   CodeNotFound,
			status: http.StatusNotFound,
		},
		{
			name:   "malformed season",
			err:    &openf1.MalformedInputError{Field: "season", Value: "abc"},
			code:   CodeInvalidInput,
			status: http.StatusBadRequest,
		},
		{
			name:   "session not found",
			err:    fmt.Errorf("%w: Sakhir", openf1.ErrSessionNotFound),
			code:   CodeNotFound,
			status: http.StatusNotFound,
		},
		{
			name:   "deadline",
			err:    context.DeadlineExceeded,
			code:   CodeTimeout,
			status: http.StatusGatewayTimeout,
		},
		{
			name:   "other",
			err:    fmt.Errorf("boom"),
			code:   CodeInternal,
			status: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			envelope := FromUpstream(ctx, tc.err)
			require.NotNil(t, envelope)
			assert.Equal(t, tc.code, envelope.Code)
			assert.Equal(t, tc.status, HTTPStatusFromEnvelope(envelope))
			assert.Equal(t, "req-123", envelope.CorrelationID)
		})
	}
}

func TestFromUpstreamKeepsExistingEnvelope(t *testing.T) {
	original := NewValidationError("date is required")
	envelope := FromUpstream(context.Background(), original)
	assert.Same(t, original, envelope)
	assert.Nil(t, FromUpstream(context.Background(), nil))
}

func TestRespondWithErrorWritesEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/openf1/sessions", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDContextKey, "req-456"))
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, &openf1.RateLimitExceededError{Endpoint: "sessions", Retries: 3})

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, CodeRateLimited, body.Error.Code)
	assert.Equal(t, "req-456", body.Error.RequestID)
	assert.Equal(t, "sessions", body.Error.Details["endpoint"])
	assert.EqualValues(t, 3, body.Error.Details["retries"])
}

func TestEnsureEnvelopeNil(t *testing.T) {
	envelope := EnsureEnvelope(nil)
	require.NotNil(t, envelope)
	assert.Equal(t, CodeInternal, envelope.Code)
}

func TestEnsureCorrelationIDFallback(t *testing.T) {
	envelope := EnsureCorrelationID(NewNotFoundError("missing"), context.Background())
	require.NotNil(t, envelope)
	assert.NotEmpty(t, envelope.CorrelationID)
	assert.Nil(t, EnsureCorrelationID(nil, context.Background()))
}
