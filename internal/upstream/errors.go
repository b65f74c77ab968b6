package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrNoNotes marks the valid "no posts yet" terminal state of the note
	// endpoints. It is not a failure.
	ErrNoNotes = errors.New("no notes for creator")

	// ErrUnrecognizedShape is returned by Normalize when a payload matches
	// none of the known user list shapes.
	ErrUnrecognizedShape = errors.New("unrecognized user payload shape")

	// ErrMalformedResponse marks a response body that is not valid JSON,
	// independently of the HTTP status.
	ErrMalformedResponse = errors.New("응답을 파싱할 수 없습니다")
)

// APIError is a non-success answer from the upstream: either a non-2xx status
// or a domain envelope with status != "success".
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error status %d", e.StatusCode)
}
