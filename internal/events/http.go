package events

import (
	"net/http"
	"time"
)

// HTTPStart is published as the server accepts a request.
type HTTPStart struct {
	Request   *http.Request
	RequestID string
}

// HTTPFinish is published after the response has been written.
type HTTPFinish struct {
	Request   *http.Request
	RequestID string
	Status    int
	// Documents counts the GraphQL requests in the body; batches carry more
	// than one.
	Documents int
	Duration  time.Duration
}
