package models

import (
	"errors"
	"fmt"
)

var (
	ErrBadRequest = errors.New("bad request")

	// ErrNoTeacherAnswers is returned when the answer key yields no answers; grading is
	// impossible without them.
	ErrNoTeacherAnswers = errors.New("no answers found in teacher document")

	// ErrMalformedEmbeddings covers vector count mismatches and empty vectors.
	ErrMalformedEmbeddings = errors.New("malformed embeddings")

	ErrEmbeddingDimensionMismatch = errors.New("embedding dimension mismatch")
)

type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error {
	return ErrEmbeddingDimensionMismatch
}

func NewDimensionMismatchError(expected, got int) error {
	return &DimensionMismatchError{Expected: expected, Got: got}
}
