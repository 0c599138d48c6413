package models

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrCapacityExceeded = errors.New("event is full")
	ErrAlreadyJoined    = errors.New("already joined")
	ErrAlreadyLeft      = errors.New("already left")
	ErrNotAParticipant  = errors.New("not a participant")
	// ErrInvalidInput marks event payloads that fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("conflict")
)
