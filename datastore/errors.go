package datastore

import "errors"

var (
	ErrPolicyNotFound   = errors.New("table policy not found")
	ErrPolicyExists     = errors.New("table is already registered")
	ErrInvalidPolicy    = errors.New("invalid table policy")
	ErrCalendarInterval = errors.New("calendar intervals (months, days) are not supported")

	// ErrPartialRetire is reported when a partition was detached but could not be dropped.
	// The detached relation is picked up again on the next pass.
	ErrPartialRetire = errors.New("partition detached but not dropped")

	ErrOperationTimeout = errors.New("partition operation timed out")
)
