package domain

import "errors"

// Every operation failure the API reports maps to one of these kinds so the
// caller can render a specific message. Services wrap them with context;
// handlers unwrap with errors.Is.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountSuspended   = errors.New("account suspended")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrRoleNotAllowed     = errors.New("role not allowed for this operation")
	ErrPriceMismatch      = errors.New("order validation failed: price mismatch detected")
	ErrOutOfStock         = errors.New("listing is out of stock")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrInvalidState       = errors.New("order is in a terminal state")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrSecurityViolation  = errors.New("request blocked due to malicious payload")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrVerificationFailed = errors.New("image verification failed")
)
