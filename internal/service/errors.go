package service

import "errors"

// Domain-rule violations surfaced to the initiating user. They are
// detected before any action reaches the state store.
var (
	ErrNotAuthenticated     = errors.New("no authenticated user")
	ErrEmptyPrompt          = errors.New("prompt cannot be empty")
	ErrInsufficientCredits  = errors.New("not enough credits, please buy more")
	ErrInvalidAspectRatio   = errors.New("unsupported aspect ratio")
	ErrGenerationInProgress = errors.New("a generation is already in progress")
	ErrEmptyTransactionRef  = errors.New("transaction id is required")
	ErrUnknownPackage       = errors.New("unknown credit package")
	ErrUnknownPayment       = errors.New("payment request not found")
)
