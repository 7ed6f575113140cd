package auction

import (
	"errors"
	"fmt"
	"net/http"

	"pinkgavel/internal/fetch"
	"pinkgavel/internal/models"
)

// ErrAuthRequired is returned when an authenticated call is attempted
// without a stored session token.
var ErrAuthRequired = errors.New("authentication required")

// APIError is a non-2xx response from the auction API. These are never
// retried; the message comes from the response body when it parses, or from
// a status-keyed fallback otherwise.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auction api: %s (status %d)", e.Message, e.StatusCode)
}

// statusMessages maps status codes to generic messages used when the error
// body is absent or unparseable.
var statusMessages = map[int]string{
	http.StatusBadRequest:          "bad request",
	http.StatusUnauthorized:        "authentication required",
	http.StatusForbidden:           "forbidden",
	http.StatusNotFound:            "not found",
	http.StatusTooManyRequests:     "too many requests",
	http.StatusInternalServerError: "server error",
	http.StatusBadGateway:          "service unavailable",
	http.StatusServiceUnavailable:  "service unavailable",
}

// errorFromResponse builds an APIError from a non-2xx response. It prefers
// the first message of the API's error envelope.
func errorFromResponse(resp *fetch.Response) *APIError {
	var body models.ErrorBody
	if err := resp.JSON(&body); err == nil && len(body.Errors) > 0 && body.Errors[0].Message != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: body.Errors[0].Message}
	}

	msg, ok := statusMessages[resp.StatusCode]
	if !ok {
		msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
