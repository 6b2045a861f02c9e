package domain

import (
	"errors"
)

var (
	ErrInternal = errors.New("internal error")

	// * Data errors.
	ErrNotFound        = errors.New("order not found")
	ErrConflictingData = errors.New("data conflicts with existing data in unique column")

	// * Communication errors.
	ErrBadRequest = errors.New("error parsing request")
	ErrNetwork    = errors.New("network error")

	// * Authority errors.
	ErrTokenCreation              = errors.New("error creating token")
	ErrInvalidToken               = errors.New("access token is invalid")
	ErrEmptyAuthorizationHeader   = errors.New("authorization header is not provided")
	ErrInvalidAuthorizationHeader = errors.New("authorization header format is invalid")
	ErrInvalidAuthorizationType   = errors.New("authorization type is not supported")
	ErrUnauthorized               = errors.New("caller is unauthorized to access the order")

	// * Business errors.
	ErrNotCancellable = errors.New("order can no longer be cancelled")

	// * Stream reconciliation. Absorbed by the session, never shown to users.
	ErrStaleEvent    = errors.New("stale event")
	ErrTerminalOrder = errors.New("order is in a terminal state")
	ErrNoCourier     = errors.New("no courier assigned")
	ErrUnknownEvent  = errors.New("unknown event kind")
	ErrInvalidEvent  = errors.New("invalid event")
	ErrSessionClosed = errors.New("tracking session closed")
)
