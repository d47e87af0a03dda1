package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")

	// ErrStageFailed marks a stage function that ran but produced no usable
	// output. It is recorded on the book and never aborts the run.
	ErrStageFailed = errors.New("stage produced no output")

	// ErrLockHeld is returned when another driver process holds the run lock.
	ErrLockHeld = errors.New("run lock held by another process")
)
