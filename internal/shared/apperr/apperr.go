// Package apperr gives domain errors a kind that the HTTP boundary maps to a status code.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure for the caller
type Kind int

const (
	Internal Kind = iota
	NotFound
	Validation
	Expired
	Capacity
	Conflict
	Unauthorized
	Forbidden
	Delivery
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Validation:
		return "validation"
	case Expired:
		return "expired"
	case Capacity:
		return "capacity"
	case Conflict:
		return "conflict"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case Delivery:
		return "delivery"
	default:
		return "internal"
	}
}

// HTTPStatus returns the response code used for the kind
func (k Kind) HTTPStatus() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusBadRequest
	case Expired:
		return http.StatusGone
	case Capacity:
		return http.StatusUnprocessableEntity
	case Conflict:
		return http.StatusConflict
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Delivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a message with a kind. Package-level sentinels are declared with New
// and compared with errors.Is.
type Error struct {
	kind    Kind
	message string
}

// New declares a kinded error
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func (e *Error) Error() string { return e.message }

// Kind returns the error classification
func (e *Error) Kind() Kind { return e.kind }

type kinded interface {
	Kind() Kind
}

type availabler interface {
	Available() int
}

// KindOf walks the wrap chain for the first kinded error
func KindOf(err error) Kind {
	if err == nil {
		return Internal
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return Internal
}

// AvailableOf extracts the remaining ticket count carried by capacity failures
func AvailableOf(err error) (int, bool) {
	var a availabler
	if errors.As(err, &a) {
		return a.Available(), true
	}
	return 0, false
}
