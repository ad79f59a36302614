package domain

import (
	"errors"
	"fmt"
)

// Failure taxonomy for the answer pipeline. Both are caught at their origin
// and mapped to a Decision; neither ever reaches a chat adapter.
var (
	// ErrRetrieval marks Document Store failures (unreachable, query error).
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration marks Language Model failures (unreachable, bad status,
	// malformed response).
	ErrGeneration = errors.New("generation failed")
)

// Validation sentinels for incoming questions.
var (
	ErrQueryEmpty   = errors.New("query is empty")
	ErrQueryTooLong = errors.New("query too long")
)

// RetrievalError wraps an underlying store error as ErrRetrieval.
func RetrievalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrRetrieval, op, err)
}

// GenerationError wraps an underlying model error as ErrGeneration.
func GenerationError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrGeneration, op, err)
}
