package service

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies a webhook pipeline failure
type ErrorKind string

const (
	KindRead             ErrorKind = "ReadError"
	KindConfig           ErrorKind = "ConfigError"
	KindMissingSignature ErrorKind = "MissingSignatureError"
	KindInvalidSignature ErrorKind = "InvalidSignatureError"
	KindInvalidJSON      ErrorKind = "InvalidJsonError"
	KindSchemaValidation ErrorKind = "SchemaValidationError"
	KindProviderReported ErrorKind = "ProviderReportedError"
	KindPersistence      ErrorKind = "PersistenceError"
	KindConflict         ErrorKind = "ConflictError"
)

var kindStatus = map[ErrorKind]int{
	KindRead:             http.StatusBadRequest,
	KindConfig:           http.StatusInternalServerError,
	KindMissingSignature: http.StatusUnauthorized,
	KindInvalidSignature: http.StatusUnauthorized,
	KindInvalidJSON:      http.StatusBadRequest,
	KindSchemaValidation: http.StatusBadRequest,
	KindProviderReported: http.StatusOK,
	KindPersistence:      http.StatusInternalServerError,
	KindConflict:         http.StatusConflict,
}

// PipelineError is a classified webhook failure
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Details interface{}
	Err     error
}

// Sentinels for errors.Is matching by kind
var (
	ErrRead             = &PipelineError{Kind: KindRead}
	ErrConfig           = &PipelineError{Kind: KindConfig}
	ErrMissingSignature = &PipelineError{Kind: KindMissingSignature}
	ErrInvalidSignature = &PipelineError{Kind: KindInvalidSignature}
	ErrInvalidJSON      = &PipelineError{Kind: KindInvalidJSON}
	ErrSchemaValidation = &PipelineError{Kind: KindSchemaValidation}
	ErrProviderReported = &PipelineError{Kind: KindProviderReported}
	ErrPersistence      = &PipelineError{Kind: KindPersistence}
	ErrConflict         = &PipelineError{Kind: KindConflict}
)

func newPipelineError(kind ErrorKind, message string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Err: err}
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is enables errors.Is matching on the error kind
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	return ok && t.Kind == e.Kind
}

// StatusCode returns the HTTP status the kind maps to
func (e *PipelineError) StatusCode() int {
	if code, ok := kindStatus[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}
