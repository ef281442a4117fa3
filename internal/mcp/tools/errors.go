package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/usestring/nfextract-mcp/internal/decode"
	"github.com/usestring/nfextract-mcp/internal/extract"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeDecodeFailed       = "DECODE_FAILED"
	ErrCodeUnsupportedContent = "UNSUPPORTED_CONTENT"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeInternal           = "INTERNAL"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapExtractError converts an extraction service error to a coded error.
// Errors that already carry a code are returned unchanged.
func WrapExtractError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded
	}

	switch {
	case errors.Is(err, decode.ErrUnsupported):
		coded = &CodedError{Code: ErrCodeUnsupportedContent, Message: "document type cannot be extracted", Cause: err}
	case errors.Is(err, decode.ErrTooLarge):
		coded = &CodedError{Code: ErrCodeInvalidInput, Message: "document exceeds size limit", Cause: err}
	case errors.Is(err, extract.ErrBatchTooLarge):
		coded = &CodedError{Code: ErrCodeInvalidInput, Message: "too many documents", Cause: err}
	case errors.Is(err, decode.ErrMalformed):
		coded = &CodedError{Code: ErrCodeDecodeFailed, Message: "document could not be decoded", Cause: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		coded = &CodedError{Code: ErrCodeTimeout, Message: "extraction canceled or timed out", Cause: err}
	default:
		coded = &CodedError{Code: ErrCodeInternal, Message: err.Error(), Cause: err}
	}

	slog.Warn("extraction error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)

	return coded
}

// CodeOf returns the code of a coded error, or ErrCodeInternal.
func CodeOf(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ErrCodeInternal
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
