package tablestore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a delete targets a row that does not exist.
	// Point lookups do not return it; GetByID reports absence as (nil, nil).
	ErrNotFound = errors.New("tablestore: row not found")

	// ErrConflict is returned by Add when the (PartitionKey, RowKey) pair
	// already exists.
	ErrConflict = errors.New("tablestore: row already exists")

	// ErrPreconditionFailed is returned when a delete carries an ETag that no
	// longer matches the stored row.
	ErrPreconditionFailed = errors.New("tablestore: concurrency tag mismatch")

	// ErrInvalidConfig is returned when a storage configuration fails
	// validation.
	ErrInvalidConfig = errors.New("tablestore: invalid configuration")
)

// ConflictError reports a duplicate-key insert.
type ConflictError struct {
	PartitionKey string
	RowKey       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("row (%s, %s) already exists", e.PartitionKey, e.RowKey)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NotFoundError reports a delete against an absent row.
type NotFoundError struct {
	PartitionKey string
	RowKey       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("row (%s, %s) not found", e.PartitionKey, e.RowKey)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PreconditionError reports an ETag mismatch on a conditional delete.
type PreconditionError struct {
	PartitionKey string
	RowKey       string
	ETag         string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("row (%s, %s): stored version does not match tag %q", e.PartitionKey, e.RowKey, e.ETag)
}

func (e *PreconditionError) Is(target error) bool { return target == ErrPreconditionFailed }

// IsConflict reports whether err is a duplicate-key failure.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound reports whether err is an absent-row failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
