package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the repository's error taxonomy (spec §7).
var (
	// ErrNotFound indicates the requested row does not exist. Per spec
	// §7 this is not itself an error condition for callers that expect
	// an empty Option/collection; it exists so internal plumbing can use
	// errors.Is consistently.
	ErrNotFound = errors.New("repository: not found")

	// ErrInvalidArgument indicates a caller-supplied value fails
	// validation (bad coordinates, negative tolerance, minMag > maxMag,
	// empty required identifier).
	ErrInvalidArgument = errors.New("repository: invalid argument")

	// ErrConflict indicates a unique constraint violation, typically a
	// duplicate identifier on insert.
	ErrConflict = errors.New("repository: conflict")

	// ErrChunkFailed indicates a batch operation's current chunk failed
	// and was rolled back; prior chunks remain committed.
	ErrChunkFailed = errors.New("repository: batch chunk failed")
)

// wrapDBError wraps a database error with operation context, converting
// sql.ErrNoRows to ErrNotFound and unique-constraint violations to
// ErrConflict for consistent caller-side errors.Is checks (grounded on the
// teacher's internal/storage/sqlite/errors.go).
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if msg := err.Error(); strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry") {
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
