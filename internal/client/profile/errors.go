package profile

import "errors"

var (
	// ErrBusy is returned while another load or commit is in flight.
	ErrBusy             = errors.New("profile: another operation is in progress")
	ErrNoProfile        = errors.New("profile: not loaded")
	ErrNotEditing       = errors.New("profile: no edit in progress")
	ErrFieldNotEditable = errors.New("profile: field is not editable")
	ErrUnknownField     = errors.New("profile: unknown field")
	ErrNoCache          = errors.New("profile: no local cache configured")
	// ErrDiscarded is returned when the store was reset while the call was
	// in flight. The response was dropped.
	ErrDiscarded = errors.New("profile: response discarded after reset")
)
