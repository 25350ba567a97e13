package packager

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoContentInput = errors.New("content file has no input")
	ErrNoSmilInput    = errors.New("media overlay has no input")
	ErrNoCoverData    = errors.New("cover has no data")
)

// StreamError reports a caller-supplied stream that failed while being
// copied into its entry. The archive is incomplete and must be discarded.
type StreamError struct {
	Entry string
	Err   error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("read input for %s: %v", e.Entry, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// ArchiveError reports a failure of the zip sink: creating, writing or
// finalising an entry.
type ArchiveError struct {
	Entry string
	Err   error
}

func (e *ArchiveError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("finalize archive: %v", e.Err)
	}
	return fmt.Sprintf("write entry %s: %v", e.Entry, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// ValidationError lists caller-contract violations found in strict mode.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid book: " + strings.Join(e.Problems, "; ")
}
