package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes application errors for HTTP status mapping.
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// InvalidInput indicates the request was malformed (HTTP 400).
	InvalidInput
	// NotFound indicates a referenced transcript, role or record does not exist (HTTP 404).
	NotFound
	// TooLarge indicates the request body exceeded the configured limit (HTTP 413).
	TooLarge
	// Unreachable indicates a remote endpoint could not be reached (HTTP 502).
	Unreachable
	// Timeout indicates the work took too long to finish (HTTP 504).
	Timeout
	// ParsingFailed indicates a payload could not be parsed (HTTP 500).
	ParsingFailed
	// Storage indicates the persistence layer failed (HTTP 500).
	Storage
)

var kindNames = map[Kind]string{
	Unknown:       "unknown",
	InvalidInput:  "invalid_input",
	NotFound:      "not_found",
	TooLarge:      "too_large",
	Unreachable:   "unreachable",
	Timeout:       "timeout",
	ParsingFailed: "parsing_failed",
	Storage:       "storage",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// AppError carries a category, user message, and original cause.
type AppError struct {
	Kind           Kind
	UpstreamStatus int // HTTP status code returned by the remote endpoint
	Message        string
	Cause          error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// KindOf reports the Kind of the first AppError in err's chain, or Unknown.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unknown
}
