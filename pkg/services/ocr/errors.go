package ocr

import (
	"errors"
	"fmt"
)

var (
	// ErrNoOperationLocation is returned when the service accepts a document
	// but does not say where to poll for the result.
	ErrNoOperationLocation = errors.New("no Operation-Location found")

	// ErrAnalysisFailed is returned when the service reports the read
	// operation as failed.
	ErrAnalysisFailed = errors.New("azure OCR failed")

	// ErrTimedOut is returned when the attempt budget runs out before the
	// read operation reaches a terminal state.
	ErrTimedOut = errors.New("azure OCR timed out")
)

// SubmissionError carries a rejected submission back to the user verbatim.
type SubmissionError struct {
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("azure error: %d", e.StatusCode)
}

// StatusError is a status poll the service answered with something other
// than 200, e.g. throttling. The operation itself may still be running.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("azure status poll: %d", e.StatusCode)
}
