package dto

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrOCRFailure        = errors.New("ocr failure")
	ErrModelFailure      = errors.New("model failure")
	ErrContextOverflow   = errors.New("prompt exceeds model context window")
	ErrFileRequired      = errors.New("file is required")
	ErrFileTooLarge      = errors.New("file exceeds maximum upload size")
)

// Pipeline stages reported in StageError and FieldFailure
const (
	StageFormat = "format"
	StageOCR    = "ocr"
	StageLLM    = "llm"
)

// StageError records which pipeline stage failed
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the failing stage of err, or "" when err carries none
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
