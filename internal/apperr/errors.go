// Package apperr defines the sentinel errors shared across the service
// layers. Callers match them with errors.Is and map them to transport
// status codes at the boundary.
package apperr

import "errors"

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrConflict indicates a uniqueness or state conflict.
var ErrConflict = errors.New("conflict")

// ErrNotFound indicates that the requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrBadState is returned when an operation is not valid in the resource's
// current lifecycle state.
var ErrBadState = errors.New("invalid state for operation")

// ErrAlreadyBroadcasting is returned when an order already has an assignment
// in the broadcast state.
var ErrAlreadyBroadcasting = errors.New("order already broadcasting")

// ErrAlreadyAccepted is returned to the losers of an accept race.
var ErrAlreadyAccepted = errors.New("assignment already accepted")

// ErrAssignmentExpired is returned for accepts and rejects that arrive after
// the broadcast window closed or the broadcast was withdrawn.
var ErrAssignmentExpired = errors.New("assignment expired")

// ErrInvalidCode is returned when a submitted one-time code does not match.
var ErrInvalidCode = errors.New("invalid code")

// ErrCodeExpired is returned when the one-time code's TTL has passed.
var ErrCodeExpired = errors.New("code expired")

// ErrAttemptsExceeded is returned once the verification attempt cap is
// reached; the active code is invalidated and must be re-issued.
var ErrAttemptsExceeded = errors.New("verification attempts exceeded")

// ErrNotificationFailed wraps a failed out-of-band send; the triggering
// transition is rolled back.
var ErrNotificationFailed = errors.New("notification failed")
