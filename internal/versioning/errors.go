// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package versioning

import (
	"errors"
	"fmt"

	"pagecraft/internal/normalize"
	"pagecraft/internal/patch"
	"pagecraft/internal/store"
)

// Kind is the closed set of failures callers can see.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindValidation Kind = "validation"
	KindStorage    Kind = "storage"
)

// Error is the only error type returned by Service methods.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or KindStorage for anything that is not
// an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

// IsConflict reports whether err is a Conflict error.
func IsConflict(err error) bool { return err != nil && KindOf(err) == KindConflict }

// IsValidation reports whether err is a Validation error.
func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }

func notFound(op, what string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: what + " not found"}
}

func validation(op, msg string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: msg, Err: err}
}

// classify maps a repository or helper error onto the service taxonomy.
func classify(op string, err error) *Error {
	var (
		e     *Error
		field *normalize.FieldError
		dup   *store.DuplicateError
	)
	switch {
	case errors.As(err, &e):
		return e
	case errors.As(err, &dup):
		return &Error{Kind: KindConflict, Op: op, Message: "value already in use (" + dup.Constraint + ")", Err: err}
	case errors.Is(err, store.ErrStaleRevision):
		return &Error{Kind: KindConflict, Op: op, Message: "document changed since it was loaded; reload and retry", Err: err}
	case errors.Is(err, store.ErrNotFound):
		return &Error{Kind: KindNotFound, Op: op, Message: "template not found", Err: err}
	case errors.Is(err, patch.ErrInvalid):
		return validation(op, "malformed patch", err)
	case errors.As(err, &field):
		return validation(op, "invalid field "+field.Field, err)
	}
	return &Error{Kind: KindStorage, Op: op, Message: "storage failure", Err: err}
}
