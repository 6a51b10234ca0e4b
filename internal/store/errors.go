// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the stores react to.
const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
)

var (
	// ErrNotFound is returned by write paths that require an existing row.
	// Read paths return nil, nil instead.
	ErrNotFound = errors.New("not found")

	// ErrStaleRevision matches every *StaleRevisionError.
	ErrStaleRevision = errors.New("stale revision")
)

// StaleRevisionError is returned when a commit's base revision no longer
// matches the stored one. Nothing is written.
type StaleRevisionError struct {
	TemplateID uuid.UUID
	Expected   int
	Current    int
}

func (e *StaleRevisionError) Error() string {
	return fmt.Sprintf("template %s: base revision %d is stale (current %d)",
		e.TemplateID, e.Expected, e.Current)
}

func (e *StaleRevisionError) Is(target error) bool { return target == ErrStaleRevision }

// DuplicateError reports a unique constraint violation.
type DuplicateError struct {
	Constraint string
	Err        error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value violates %s", e.Constraint)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

// asDuplicate converts a unique violation into a *DuplicateError and leaves
// every other error untouched.
func asDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &DuplicateError{Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}

// jsonbArg passes a JSON document as a query argument, mapping empty to NULL.
func jsonbArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
