package service

import "errors"

// Error kinds surfaced by the deal engine, order ledger and catalog.
// Callers classify with errors.Is; the HTTP layer maps each kind to a
// status code.
var (
	// ErrValidation means the input shape or values are unacceptable.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means a referenced entity is absent.
	ErrNotFound = errors.New("not found")

	// ErrState means the operation is illegal in the entity's current
	// state, e.g. joining an unapproved deal or un-rejecting a deal.
	ErrState = errors.New("illegal state transition")

	// ErrForbidden means the actor lacks ownership or role.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict means a concurrent-update anomaly was detected rather
	// than transparently serialized.
	ErrConflict = errors.New("conflict")

	// ErrPaymentDeclined means the payment step failed; no order was
	// created and no counters changed.
	ErrPaymentDeclined = errors.New("payment declined")
)
