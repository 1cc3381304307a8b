package goSession

import (
	"context"
	"errors"
	"net"
	"strconv"
)

var (
	// ErrNetworkFailure marks a transient transport failure. It never evicts credentials.
	ErrNetworkFailure = errors.New("network failure")
	// ErrTokenExpired marks a token the server reported as expired.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid marks a token the server rejected.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrMalformedResponse marks a response that could not be decoded into a user.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrValidationUnknown marks a failure that fits no other reason.
	ErrValidationUnknown = errors.New("validation failed")
	// ErrAdminRequired is returned by [Resolver.AdminSignIn] for a non-admin account.
	ErrAdminRequired = errors.New("admin privileges required")
	// ErrCredentialsAbsent is returned when an operation needs stored credentials.
	ErrCredentialsAbsent = errors.New("credentials absent")
	// ErrStorageUnavailable wraps credential store write and clear failures.
	ErrStorageUnavailable = errors.New("credential storage unavailable")
	// ErrInvalidToast is returned by [Resolver.ShowToast] for a message without a title.
	ErrInvalidToast = errors.New("invalid toast message")
	// ErrResolverClosed is returned by operations on a closed resolver.
	ErrResolverClosed = errors.New("resolver closed")
	// ErrResolverNotReady is returned when a required collaborator was not configured.
	ErrResolverNotReady = errors.New("resolver not ready")
)

// FailureReason is the closed set of validation failure causes.
//
// Reasons drive logging and metrics only; every reason takes the same
// fallback-then-unauthenticated path.
type FailureReason uint8

const (
	ReasonUnknown FailureReason = iota
	ReasonNetwork
	ReasonExpired
	ReasonInvalid
	ReasonMalformed
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNetwork:
		return "network"
	case ReasonExpired:
		return "expired"
	case ReasonInvalid:
		return "invalid"
	case ReasonMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

func (r FailureReason) sentinel() error {
	switch r {
	case ReasonNetwork:
		return ErrNetworkFailure
	case ReasonExpired:
		return ErrTokenExpired
	case ReasonInvalid:
		return ErrTokenInvalid
	case ReasonMalformed:
		return ErrMalformedResponse
	default:
		return ErrValidationUnknown
	}
}

// ValidationError is the typed failure returned by validators and fetchers.
//
// errors.Is matches both the reason sentinel and the wrapped cause.
type ValidationError struct {
	Reason FailureReason
	Status int
	Err    error
}

// NewValidationError builds a [*ValidationError].
func NewValidationError(reason FailureReason, status int, err error) *ValidationError {
	return &ValidationError{Reason: reason, Status: status, Err: err}
}

func (e *ValidationError) Error() string {
	msg := e.Reason.sentinel().Error()
	if e.Status != 0 {
		msg += " (status " + strconv.Itoa(e.Status) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason.sentinel()}
	}
	return []error{e.Reason.sentinel(), e.Err}
}

// ReasonOf classifies err into a [FailureReason].
func ReasonOf(err error) FailureReason {
	if err == nil {
		return ReasonUnknown
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}

	switch {
	case errors.Is(err, ErrNetworkFailure):
		return ReasonNetwork
	case errors.Is(err, ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, ErrTokenInvalid):
		return ReasonInvalid
	case errors.Is(err, ErrMalformedResponse):
		return ReasonMalformed
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ReasonNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ReasonNetwork
	}

	return ReasonUnknown
}
