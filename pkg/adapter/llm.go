package adapter

import (
	"context"
	"fmt"

	"github.com/m-mizutani/toolagent/pkg/model"
)

// LLM is a chat completion service with function calling
type LLM interface {
	// Complete sends the whole conversation and returns the assistant turn
	Complete(ctx context.Context, req *model.CompletionRequest) (*model.Turn, error)
}

type ErrorKind string

const (
	ErrorKindConnection ErrorKind = "connection"
	ErrorKindAuth       ErrorKind = "auth"
	ErrorKindRateLimit  ErrorKind = "rate_limit"
	ErrorKindStatus     ErrorKind = "status"
)

// CompletionError is a transport level failure of the completion service.
// It aborts the current turn and is never retried.
type CompletionError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (x *CompletionError) Error() string {
	switch x.Kind {
	case ErrorKindConnection:
		return fmt.Sprintf("API connection error: %v", x.Err)
	case ErrorKindAuth:
		return fmt.Sprintf("API authentication error, check key/permissions: %v", x.Err)
	case ErrorKindRateLimit:
		return fmt.Sprintf("API rate limit error: %v", x.Err)
	default:
		return fmt.Sprintf("API status error (status=%d): %v", x.StatusCode, x.Err)
	}
}

func (x *CompletionError) Unwrap() error {
	return x.Err
}

// classifyStatus builds a CompletionError from an HTTP status code. Zero means
// no response was received.
func classifyStatus(status int, err error) *CompletionError {
	kind := ErrorKindStatus
	switch {
	case status == 0:
		kind = ErrorKindConnection
	case status == 401 || status == 403:
		kind = ErrorKindAuth
	case status == 429:
		kind = ErrorKindRateLimit
	}
	return &CompletionError{Kind: kind, StatusCode: status, Err: err}
}
