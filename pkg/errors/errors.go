package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeAI represents LLM extraction errors
	ErrorTypeAI ErrorType = "ai"
	// ErrorTypePersist represents database errors
	ErrorTypePersist ErrorType = "persist"
	// ErrorTypeImage represents image download/OCR errors
	ErrorTypeImage ErrorType = "image"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError represents an error raised while processing one community post
type PipelineError struct {
	Type      ErrorType
	Community string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Community, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Community, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *PipelineError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeAI:
		return true
	default:
		return false
	}
}

// New creates a new PipelineError
func New(errType ErrorType, community, message string, err error) *PipelineError {
	return &PipelineError{
		Type:      errType,
		Community: community,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(community, message string, err error) *PipelineError {
	return New(ErrorTypeNetwork, community, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(community, message string, err error) *PipelineError {
	return New(ErrorTypeParsing, community, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(community string, duration time.Duration) *PipelineError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, community, message, nil)
}

// NewAI creates a new LLM extraction error
func NewAI(community, message string, err error) *PipelineError {
	return New(ErrorTypeAI, community, message, err)
}

// NewPersist creates a new database error
func NewPersist(community, message string, err error) *PipelineError {
	return New(ErrorTypePersist, community, message, err)
}

// NewImage creates a new image processing error
func NewImage(community, message string, err error) *PipelineError {
	return New(ErrorTypeImage, community, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "", message, err)
}
