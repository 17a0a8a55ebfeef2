package client

import (
	"errors"
	"fmt"
)

// Error taxonomy for remote calls. Callers branch with errors.Is; the
// wrapped message carries the status code and a body snippet.
var (
	// ErrRemoteRejected - the server returned 4xx; the payload or selector
	// is malformed. Never retried.
	ErrRemoteRejected = errors.New("remote rejected request")

	// ErrRemoteUnavailable - the server returned 5xx or the connection
	// failed. Callers may retry with their own policy.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrMalformedResponse - the response body could not be parsed into the
	// expected shape.
	ErrMalformedResponse = errors.New("malformed response")
)

const bodySnippetLimit = 256

func statusError(code int, body []byte) error {
	snippet := string(body)
	if len(snippet) > bodySnippetLimit {
		snippet = snippet[:bodySnippetLimit]
	}
	switch {
	case code >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrRemoteUnavailable, code, snippet)
	case code >= 400:
		return fmt.Errorf("%w: status %d: %s", ErrRemoteRejected, code, snippet)
	default:
		return fmt.Errorf("unexpected status: %d", code)
	}
}
