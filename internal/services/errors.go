package services

import "errors"

var (
	// ErrAccountNotFound is returned when no local account matches an account ID
	ErrAccountNotFound = errors.New("account not found")
	// ErrLedgerUnavailable wraps store failures while mutating a balance; callers may retry
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	// ErrDuplicateGrant is returned when a checkout session has already been credited
	ErrDuplicateGrant = errors.New("checkout session already credited")
	// ErrInvalidCredits is returned for non-positive credit deltas
	ErrInvalidCredits = errors.New("credits must be positive")

	// ErrInvalidCheckout is returned when a checkout request fails local validation
	ErrInvalidCheckout = errors.New("invalid checkout request")
	// ErrCheckoutCreate wraps provider failures while creating a session
	ErrCheckoutCreate = errors.New("failed to create checkout session")
	// ErrSessionNotFound is returned when the provider has no such checkout session
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrSessionExpire wraps provider failures while expiring a session
	ErrSessionExpire = errors.New("failed to expire checkout session")
	// ErrProvider wraps any other payment provider failure
	ErrProvider = errors.New("payment provider error")

	// ErrInvalidSignature is returned when a webhook payload fails verification
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrNotFound is returned when a profile row does not exist or belongs to someone else
	ErrNotFound = errors.New("record not found")
	// ErrUnknownSection is returned for a profile section name that is not registered
	ErrUnknownSection = errors.New("unknown profile section")

	// ErrCacheDisabled is returned by a nil RedisCache
	ErrCacheDisabled = errors.New("cache disabled")
)
