package babel

import (
	"errors"
	"fmt"
)

// Kind classifies a client failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindValidation
	KindInvalidToken
	KindNotFound
	KindRequestFailed
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindInvalidToken:
		return "invalid_token"
	case KindNotFound:
		return "not_found"
	case KindRequestFailed:
		return "request_failed"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks, one per Kind.
var (
	ErrConfig        = errors.New("babel: configuration error")
	ErrValidation    = errors.New("babel: validation error")
	ErrInvalidToken  = errors.New("babel: invalid token")
	ErrNotFound      = errors.New("babel: not found")
	ErrRequestFailed = errors.New("babel: request failed")
	ErrDecode        = errors.New("babel: decode failure")
)

// Error is returned by every Client operation.
// Status, Method and Path are set only for errors produced by a request.
type Error struct {
	Kind    Kind
	Status  int
	Method  string
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status > 0:
		s := fmt.Sprintf("Error %d for %s %s", e.Status, e.Method, e.Path)
		if e.Message != "" {
			s += ": " + e.Message
		}
		return s
	case e.Kind == KindDecode:
		return fmt.Sprintf("Error decoding response for %s %s: %v", e.Method, e.Path, e.Err)
	case e.Method != "" && e.Err != nil:
		return fmt.Sprintf("Error requesting %s %s: %v", e.Method, e.Path, e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's Kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == sentinelFor(e.Kind)
}

func sentinelFor(k Kind) error {
	switch k {
	case KindConfig:
		return ErrConfig
	case KindValidation:
		return ErrValidation
	case KindInvalidToken:
		return ErrInvalidToken
	case KindNotFound:
		return ErrNotFound
	case KindRequestFailed:
		return ErrRequestFailed
	case KindDecode:
		return ErrDecode
	default:
		return nil
	}
}

// KindOf returns the Kind of err, or KindUnknown if err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether err describes a transient state worth polling
// again, i.e. a feed that has not been materialized yet.
func IsRetryable(err error) bool {
	return KindOf(err) == KindNotFound
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

func configError(msg string) *Error {
	return &Error{Kind: KindConfig, Message: msg}
}

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}
