package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("server unavailable")
	ErrServer       = errors.New("server rejected request")
	ErrOTPRejected  = errors.New("otp rejected")
	ErrOTPExpired   = errors.New("otp expired")
	// ErrSessionChanged is returned when the session was torn down or
	// replaced while a call was in flight; the response is discarded.
	ErrSessionChanged = errors.New("session changed during request")

	ErrInvalidCredentials = &AuthError{Reason: ReasonInvalidCredentials}
	ErrSessionExpired     = &AuthError{Reason: ReasonSessionExpired}
	ErrNotSignedIn        = &AuthError{Reason: ReasonNotSignedIn}
)

// ValidationError is bad input, detected either locally (never sent) or
// reported by the server on a field update.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type AuthReason int

const (
	ReasonUnknown AuthReason = iota
	ReasonInvalidCredentials
	ReasonServerUnavailable
	ReasonSessionExpired
	ReasonNotSignedIn
)

func (r AuthReason) String() string {
	switch r {
	case ReasonInvalidCredentials:
		return "invalid credentials"
	case ReasonServerUnavailable:
		return "server unavailable"
	case ReasonSessionExpired:
		return "session expired"
	case ReasonNotSignedIn:
		return "not signed in"
	default:
		return "authentication failed"
	}
}

// AuthError is a login failure or a rejected session. Message is the
// server-supplied text, if any.
type AuthError struct {
	Reason  AuthReason
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason.String()
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches another *AuthError by reason, ErrUnavailable for the
// server-unavailable reason and ErrUnauthorized for every other reason.
func (e *AuthError) Is(target error) bool {
	if t, ok := target.(*AuthError); ok {
		return t.Reason == e.Reason
	}
	if e.Reason == ReasonServerUnavailable {
		return target == ErrUnavailable
	}
	return target == ErrUnauthorized
}

// NetworkError is a transport failure or a 5xx answer. No state was changed.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: server unavailable (%d %s)", e.Op, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrUnavailable }

// ServerError is a well-formed rejection of a business rule. Message is shown
// to the user verbatim.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request rejected (%d %s)", e.Status, http.StatusText(e.Status))
}

func (e *ServerError) Is(target error) bool { return target == ErrServer }

// OTPRejectedError is a passcode the server did not accept.
type OTPRejectedError struct {
	Expired bool
	Message string
}

func (e *OTPRejectedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Expired {
		return "verification code expired"
	}
	return "invalid verification code"
}

func (e *OTPRejectedError) Is(target error) bool {
	if e.Expired {
		return target == ErrOTPExpired
	}
	return target == ErrOTPRejected
}

func newOTPRejected(status int, message string) *OTPRejectedError {
	expired := status == http.StatusGone || strings.Contains(strings.ToLower(message), "expired")
	return &OTPRejectedError{Expired: expired, Message: message}
}
