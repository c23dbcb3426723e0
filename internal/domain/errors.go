package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. unknown check-in status, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrNotAMember is returned when the acting user is not part of the roster
// of the trip's group. The aggregate is left untouched.
var ErrNotAMember = errors.New("user is not a member of the trip's group")

// ErrForbidden is returned when a roster member attempts an action reserved
// for the trip owner or a group admin.
var ErrForbidden = errors.New("forbidden")

// ErrTripNotActive is returned when an operation requires a trip state the
// trip is not in, e.g. a position report for a trip that is not in progress.
var ErrTripNotActive = errors.New("trip is not active")

// ErrInvalidTransition is returned when a requested lifecycle transition is
// not an edge of the trip state machine.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// ErrConflict is returned when a compare-and-set write finds the stored row
// changed underneath it.
var ErrConflict = errors.New("conflict")
