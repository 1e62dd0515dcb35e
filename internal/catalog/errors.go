package catalog

import "errors"

var (
	ErrNotFound        = errors.New("product not found")
	ErrOutOfRange      = errors.New("price index out of range")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)

// errUnchanged marks a mutation that is accepted but leaves the collection
// as it was, so nothing is persisted.
var errUnchanged = errors.New("unchanged")
