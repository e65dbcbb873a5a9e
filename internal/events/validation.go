package events

import "time"

// ValidationStart is emitted before a document is parsed and validated.
type ValidationStart struct {
	DocumentHash  string
	OperationName string
}

// ValidationFinish is emitted once a document has been checked.
type ValidationFinish struct {
	DocumentHash  string
	OperationName string
	// ParseFailed is set when the document never reached the validator.
	ParseFailed bool
	Errors      int
	Conflicts   int
	Duration    time.Duration
}
