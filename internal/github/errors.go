package github

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v68/github"
)

// APIError is a non-success response from the listing endpoint.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: failed to fetch repos: %d %s - %s", e.StatusCode, e.Status, e.Body)
}

// IsNotFound checks if the error indicates the owner was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsUnauthorized checks if the error indicates a rejected token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

// wrapError converts go-github errors to APIError where a response is available.
func wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var (
		resp    *http.Response
		message string
	)

	var ghErr *gh.ErrorResponse
	var rateLimitErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	switch {
	case errors.As(err, &rateLimitErr):
		resp, message = rateLimitErr.Response, rateLimitErr.Message
	case errors.As(err, &abuseErr):
		resp, message = abuseErr.Response, abuseErr.Message
	case errors.As(err, &ghErr):
		resp, message = ghErr.Response, ghErr.Message
	}

	if resp == nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
		Body:       responseBody(resp, message),
	}
}

// responseBody returns the raw body go-github left on the response, or the
// decoded message when the body has already been consumed.
func responseBody(resp *http.Response, fallback string) string {
	if resp.Body == nil {
		return fallback
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil || len(data) == 0 {
		return fallback
	}
	return strings.TrimSpace(string(data))
}
