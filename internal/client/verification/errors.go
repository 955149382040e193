package verification

import (
	"errors"
	"fmt"
)

// ErrStaleOperation is returned when a response arrives for an operation
// that was cancelled or superseded. The flow's state was not touched.
var ErrStaleOperation = errors.New("verification: stale response discarded")

type OtpReason int

const (
	ReasonInvalidCode OtpReason = iota + 1
	ReasonExpired
	ReasonAlreadyInProgress
)

func (r OtpReason) String() string {
	switch r {
	case ReasonInvalidCode:
		return "invalid code"
	case ReasonExpired:
		return "code expired"
	case ReasonAlreadyInProgress:
		return "verification already in progress"
	default:
		return "otp error"
	}
}

var (
	ErrInvalidCode       = &OtpError{Reason: ReasonInvalidCode}
	ErrExpired           = &OtpError{Reason: ReasonExpired}
	ErrAlreadyInProgress = &OtpError{Reason: ReasonAlreadyInProgress}
)

// OtpError is a passcode outcome the user has to act on. InvalidCode may be
// resubmitted; Expired and AlreadyInProgress require restarting the flow.
type OtpError struct {
	Reason  OtpReason
	Message string
	Err     error
}

func (e *OtpError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Reason.String()
}

func (e *OtpError) Unwrap() error { return e.Err }

func (e *OtpError) Is(target error) bool {
	t, ok := target.(*OtpError)
	return ok && t.Reason == e.Reason
}

// Resubmittable reports whether the user may try another code.
func (e *OtpError) Resubmittable() bool { return e.Reason == ReasonInvalidCode }

// StateError is an operation invoked from a state that does not allow it.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("verification: cannot %s while %s", e.Op, e.State)
}

// RequestError wraps a failure to issue a challenge.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return "requesting verification code: " + e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }
