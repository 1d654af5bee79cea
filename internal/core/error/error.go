package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// ParseErrorMessage describes model or user output that could not be
	// interpreted as structured data after every salvage strategy.
	ParseErrorMessage = "could not interpret response as structured data"
	// ProviderErrorMessage describes completion provider transport failures.
	ProviderErrorMessage = "completion provider request failed"
	// UsageErrorMessage describes a workflow stage entered without the
	// content that stage requires.
	UsageErrorMessage = "request is missing required content for this stage"
	// ValidationErrorMessage describes a trigger payload that is present but
	// unusable.
	ValidationErrorMessage = "trigger payload failed validation"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes missing Redis keys.
	RedisNotFoundMessage = "redis key not found"
)

// Kind classifies an error into the workflow error taxonomy.
type Kind int

const (
	KindSystem Kind = iota
	// KindParse: every tolerant-parsing strategy was exhausted.
	KindParse
	// KindProvider: the completion provider call itself failed.
	KindProvider
	// KindUsage: a stage was entered without its required input.
	KindUsage
	// KindValidation: a bracket-trigger payload was present but unparsable.
	KindValidation
	// KindRedis: conversation repository failure.
	KindRedis
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindProvider:
		return "provider"
	case KindUsage:
		return "usage"
	case KindValidation:
		return "validation"
	case KindRedis:
		return "redis"
	default:
		return "system"
	}
}

// AppError wraps an underlying error with an HTTP status, a safe message and
// a workflow kind.
type AppError struct {
	Err     error
	Status  int
	Message string
	Kind    Kind
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapParse marks an error as a tolerant-parsing failure.
func WrapParse(err error) *AppError {
	return &AppError{
		Err:     err,
		Status:  http.StatusUnprocessableEntity,
		Message: ParseErrorMessage,
		Kind:    KindParse,
	}
}

// WrapProvider marks an error as a completion provider transport failure.
func WrapProvider(err error) *AppError {
	return &AppError{
		Err:     err,
		Status:  http.StatusBadGateway,
		Message: ProviderErrorMessage,
		Kind:    KindProvider,
	}
}

// NewUsage reports a stage entered without the content it requires.
func NewUsage(message string) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Message: message,
		Kind:    KindUsage,
	}
}

// NewValidation reports a trigger payload that was present but unusable.
func NewValidation(err error, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  http.StatusBadRequest,
		Message: message,
		Kind:    KindValidation,
	}
}

// KindOf returns the Kind of the first AppError in the chain, or KindSystem
// when the error is unclassified.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindSystem
}

// UserMessage returns the safe message of the first AppError in the chain,
// or the generic system message for unclassified errors.
func UserMessage(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return SystemErrorMessage
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
