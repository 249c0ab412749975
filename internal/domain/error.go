package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound             = errors.New("entity not found")
	ErrAlreadyExists        = errors.New("entity already exists")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrOperationFailed      = errors.New("operation failed")
	ErrInvalidExecContext   = errors.New("invalid SQL execution context")
	ErrReadDatabaseRow      = errors.New("failed to read database row")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrCouponExhausted      = errors.New("coupon usage limit reached")
	ErrCouponNotApplicable  = errors.New("coupon does not apply to any cart product")
	ErrGatewayNotConfigured = errors.New("payment gateway credentials are not configured")
	ErrLockNotAcquired      = errors.New("could not acquire lock")
	ErrRateLimited          = errors.New("too many checkout attempts")
)
