package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrForbidden          = errors.New("operation not permitted")
	ErrUnauthorized       = errors.New("unauthorized")

	// Users and ads
	ErrUserBlocked      = errors.New("user is blocked")
	ErrPhoneRequired    = errors.New("phone number is required")
	ErrQuotaExhausted   = errors.New("free ad quota exhausted")
	ErrContentRejected  = errors.New("ad content is not related to photography equipment")
	ErrTooManyImages    = errors.New("too many images")
	ErrInvalidCategory  = errors.New("unknown ad category")
	ErrInvalidCondition = errors.New("unknown ad condition")
	ErrInvalidStatus    = errors.New("unknown ad status")

	// Payments
	ErrPaymentNotPending  = errors.New("payment is not pending")
	ErrPaymentVerify      = errors.New("payment verification failed")
	ErrGatewayUnavailable = errors.New("payment gateway not configured")

	// Conversation
	ErrSessionBusy = errors.New("session is locked by another update")
)
