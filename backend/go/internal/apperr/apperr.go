// Package apperr defines the error taxonomy shared by the memory service and its HTTP surface.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindUpstream     Kind = "upstream"
	KindRateLimited  Kind = "rate_limited"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// AppError carries a user-facing message plus optional diagnostic details.
type AppError struct {
	Kind    Kind
	Message string
	// Details is surfaced to clients for upstream failures only.
	Details string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError of the same kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is checks.
var (
	ErrValidation  = &AppError{Kind: KindValidation}
	ErrNotFound    = &AppError{Kind: KindNotFound}
	ErrUpstream    = &AppError{Kind: KindUpstream}
	ErrRateLimited = &AppError{Kind: KindRateLimited}
	ErrConflict    = &AppError{Kind: KindConflict}
)

func Validation(msg string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg}
}

func NotFound(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

// Upstream wraps a failure of an external collaborator (LLM, vector index, embedder).
func Upstream(msg string, err error) *AppError {
	e := &AppError{Kind: KindUpstream, Message: msg, Err: err}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func RateLimited(msg string) *AppError {
	return &AppError{Kind: KindRateLimited, Message: msg}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *AppError {
	return &AppError{Kind: KindForbidden, Message: msg}
}

func Conflict(msg string) *AppError {
	return &AppError{Kind: KindConflict, Message: msg}
}

// Wrap turns an arbitrary error into an internal AppError unless it already is one.
func Wrap(msg string, err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return &AppError{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// HTTPStatus maps err to the status code used at the HTTP boundary.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		if ae.Kind == KindInternal && ae.Err != nil {
			return ae.Error()
		}
		return ae.Message
	}
	return err.Error()
}

// Details returns upstream diagnostics, empty for other kinds.
func Details(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Details
	}
	return ""
}
