package storage

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// notFoundError is returned when a referenced task id does not exist.
// It satisfies api.NotFoundError.
type notFoundError struct {
	id int64
}

func (e notFoundError) Error() string { return fmt.Sprintf("task %d not found", e.id) }

func (notFoundError) NotFound() {}

// constraintError is returned when SQLite rejects a write on a schema
// constraint, e.g. the priority CHECK. It satisfies
// api.ConstraintViolationError.
type constraintError struct {
	cause error
}

func (e constraintError) Error() string { return fmt.Sprintf("constraint violation: %v", e.cause) }

func (e constraintError) Unwrap() error { return e.cause }

func (constraintError) ConstraintViolation() {}

// wrapWriteError converts SQLite constraint failures into constraintError
// and leaves every other error untouched.
func wrapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return constraintError{cause: err}
	}
	return err
}
