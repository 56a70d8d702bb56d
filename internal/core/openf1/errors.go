package openf1

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimitExceeded reports that the upstream kept answering 429
	// after every retry was spent.
	ErrRateLimitExceeded = errors.New("openf1 rate limit exceeded")

	// ErrMalformedInput reports caller input that cannot be turned into a
	// query, such as a non-numeric season.
	ErrMalformedInput = errors.New("malformed input")

	// ErrSessionNotFound reports that no race session matched a lookup.
	ErrSessionNotFound = errors.New("race session not found")
)

// RateLimitExceededError carries the endpoint and retry count of an
// exhausted request.
type RateLimitExceededError struct {
	Endpoint string
	Retries  int
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("openf1 %s: rate limited after %d retries", e.Endpoint, e.Retries)
}

func (e *RateLimitExceededError) Unwrap() error {
	return ErrRateLimitExceeded
}

// UpstreamHTTPError is returned for any non-2xx, non-429 response.
type UpstreamHTTPError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *UpstreamHTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("openf1 %s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("openf1 %s: unexpected status %d", e.Endpoint, e.StatusCode)
}

// MalformedInputError names the offending field and value.
type MalformedInputError struct {
	Field string
	Value string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s: %q", e.Field, e.Value)
}

func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

// UnknownEndpointError is returned when Query is called with a resource the
// upstream does not serve.
type UnknownEndpointError struct {
	Endpoint string
}

func (e *UnknownEndpointError) Error() string {
	if e.Endpoint == "" {
		return "openf1 endpoint is required"
	}
	return fmt.Sprintf("unknown openf1 endpoint: %q", e.Endpoint)
}

func (e *UnknownEndpointError) Unwrap() error {
	return ErrMalformedInput
}
