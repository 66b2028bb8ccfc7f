package repository

import "errors"

var (
	// ErrNotFound is returned when a looked up row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrConstraint is returned for any other constraint violation (foreign key, check).
	ErrConstraint = errors.New("constraint violation")
)

// Page is an offset window over an ordered result set.
type Page struct {
	Limit  int
	Offset int
}
