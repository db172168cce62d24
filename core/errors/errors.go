// Package errors provides standardized error types and helpers for the qbot codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrOutOfRange indicates a chapter, verse or page outside its valid bounds
	ErrOutOfRange = errors.New("out of range")
	// ErrMissingMedia indicates a required per-verse clip could not be obtained
	ErrMissingMedia = errors.New("missing media")
	// ErrGenerationFailed indicates a media concatenation/composition failure
	ErrGenerationFailed = errors.New("generation failed")
	// ErrCorruptCache indicates a cached file exists but is unusable
	ErrCorruptCache = errors.New("corrupt cache")
	// ErrInternal indicates an internal system error
	ErrInternal = errors.New("internal error")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "tafsir", "clip", "corpus file")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// OutOfRangeError reports a reference component outside its valid bounds.
type OutOfRangeError struct {
	Kind  string // "chapter", "verse" or "page"
	Value int    // Value that was rejected
	Max   int    // Upper bound for this kind
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %d out of range 1..%d", e.Kind, e.Value, e.Max)
}

func (e *OutOfRangeError) Unwrap() error {
	return ErrOutOfRange
}

// MissingMediaError reports a per-verse audio clip that could not be
// fetched or repaired after retries.
type MissingMediaError struct {
	Voice   string
	Chapter int
	Verse   int
	Err     error
}

func (e *MissingMediaError) Error() string {
	return fmt.Sprintf("audio clip %s %d:%d unavailable", e.Voice, e.Chapter, e.Verse)
}

func (e *MissingMediaError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMissingMedia
}

// GenerationError reports a failure in the media generation pipeline after
// the degraded fallback has also been attempted.
type GenerationError struct {
	Stage  string // Stage that failed (e.g., "concat", "compose", "tag")
	Output string // Canonical output path that was being produced
	Err    error  // Underlying error
}

func (e *GenerationError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("media generation failed at %s for %s: %v", e.Stage, e.Output, e.Err)
	}
	return fmt.Sprintf("media generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrGenerationFailed
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "rename")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "JSON", "XML", "metadata")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewOutOfRange creates an OutOfRangeError
func NewOutOfRange(kind string, value, max int) *OutOfRangeError {
	return &OutOfRangeError{
		Kind:  kind,
		Value: value,
		Max:   max,
	}
}

// NewMissingMedia creates a MissingMediaError
func NewMissingMedia(voice string, chapter, verse int, err error) *MissingMediaError {
	return &MissingMediaError{
		Voice:   voice,
		Chapter: chapter,
		Verse:   verse,
		Err:     err,
	}
}

// NewGeneration creates a GenerationError
func NewGeneration(stage, output string, err error) *GenerationError {
	return &GenerationError{
		Stage:  stage,
		Output: output,
		Err:    err,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewParseWrap creates a ParseError wrapping an underlying error
func NewParseWrap(format, path, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
