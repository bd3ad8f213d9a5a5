package errors

import (
	"errors"
	"fmt"
)

// Common error types for the HR portal client
var (
	// Gateway errors
	ErrProtocolViolation = errors.New("malformed response envelope")
	ErrRequest           = errors.New("request failed")
	ErrSuperseded        = errors.New("superseded by a newer request")

	// Session errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidPrincipal = errors.New("invalid principal")
	ErrInvalidToken     = errors.New("invalid token")

	// Payment access errors
	ErrNoPaymentAccess = errors.New("no payment access grant")

	// Storage errors
	ErrPersist        = errors.New("failed to persist state")
	ErrStorageCorrupt = errors.New("stored state is corrupt")

	// Backend stub errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPMismatch        = errors.New("otp mismatch")
	ErrTooManyRequests    = errors.New("too many requests")

	// General errors
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join wraps sentinel and cause so both match with Is
func Join(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}
