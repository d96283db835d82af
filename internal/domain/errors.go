package domain

import "errors"

// Domain error taxonomy. Usecases return these (usually wrapped) and the
// HTTP layer maps them to status codes with errors.Is.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState is returned when an operation is illegal for the
	// entity's current lifecycle state (closing a closed trade, joining a
	// started challenge).
	ErrInvalidState = errors.New("invalid state")

	// ErrAlreadyExists is returned on duplicate participation attempts.
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")

	// ErrPaymentGate is returned when the payment gateway rejects or
	// fails a request. Never retried silently: a retried charge risks
	// double-billing.
	ErrPaymentGate = errors.New("payment gateway error")
)
