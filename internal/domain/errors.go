package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeExtraction        = "EXTRACTION_ERROR"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodePersistence       = "PERSISTENCE_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeValidation        = "VALIDATION_ERROR"
)

// Extraction errors: recovered at the file boundary, the run continues.
var (
	ErrUnsupportedFormat = NewDomainError(ErrCodeUnsupportedFormat, "unsupported document format")
	ErrExtractionFailed  = NewDomainError(ErrCodeExtraction, "failed to extract document text")
)

// Persistence errors: surfaced only after batch retries are exhausted,
// scoped to the current book.
var (
	ErrBatchRetriesExhausted = NewDomainError(ErrCodePersistence, "batch insert retries exhausted")
)

// Not found errors
var (
	ErrIngestionNotFound = NewDomainError(ErrCodeNotFound, "book ingestion record not found")
)

// Validation errors
var (
	ErrEmptyQuery = NewDomainError(ErrCodeValidation, "search query is empty")
)
