// Package verification drives the "send a code, let the user type it,
// confirm or reject" exchange shared by sign-up confirmation and email
// change.
//
// A Flow is bound to one purpose and one Channel. It enters a pending state
// before every network call and refuses overlapping operations, so two
// responses can never race to decide the outcome. Cancel and Reset bump an
// operation sequence number; responses tagged with an older number are
// dropped with ErrStaleOperation.
package verification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/aldente/internal/client/client"
	"github.com/dmitrijs2005/aldente/internal/client/models"
	"github.com/dmitrijs2005/aldente/internal/logging"
)

const DefaultCodeLength = 6

type State int

const (
	StateIdle State = iota
	StateRequested
	StateAwaitingCode
	StateVerifying
	StateVerified
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequested:
		return "requested"
	case StateAwaitingCode:
		return "awaiting code"
	case StateVerifying:
		return "verifying"
	case StateVerified:
		return "verified"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Failure int

const (
	FailureNone Failure = iota
	FailureInvalidCode
	FailureExpired
)

func (f Failure) String() string {
	switch f {
	case FailureInvalidCode:
		return "invalid code"
	case FailureExpired:
		return "expired"
	default:
		return "none"
	}
}

// Channel delivers and checks codes for one purpose.
type Channel interface {
	// Issue asks the server to send a new code to subject.
	Issue(ctx context.Context, subject string) error
	// Confirm checks code for subject. It returns an error matching
	// client.ErrOTPRejected or client.ErrOTPExpired for a refused code.
	Confirm(ctx context.Context, subject, code string) error
}

// Transition is one observed state change.
type Transition struct {
	From    State
	To      State
	Failure Failure
	Seq     uint64
}

// Observer is called synchronously for every transition, with the flow
// locked. It must not call back into the Flow.
type Observer func(Transition)

type Flow struct {
	purpose    models.Purpose
	channel    Channel
	codeLength int
	log        logging.Logger

	mu        sync.Mutex
	state     State
	failure   Failure
	challenge *models.OtpChallenge
	seq       uint64
	observers []Observer
}

type Option func(*Flow)

func WithCodeLength(n int) Option {
	return func(f *Flow) { f.codeLength = n }
}

func WithLogger(l logging.Logger) Option {
	return func(f *Flow) { f.log = l }
}

func New(purpose models.Purpose, channel Channel, opts ...Option) *Flow {
	f := &Flow{
		purpose:    purpose,
		channel:    channel,
		codeLength: DefaultCodeLength,
		log:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.With("purpose", purpose.String())
	return f
}

func (f *Flow) Purpose() models.Purpose { return f.purpose }

func (f *Flow) CodeLength() int { return f.codeLength }

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Failure returns the reason of the most recent failed submission, or
// FailureNone once a new challenge is requested.
func (f *Flow) Failure() Failure {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failure
}

// Challenge returns a copy of the outstanding challenge, if any.
func (f *Flow) Challenge() (models.OtpChallenge, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.challenge == nil {
		return models.OtpChallenge{}, false
	}
	return *f.challenge, true
}

// Seq returns the current operation sequence number.
func (f *Flow) Seq() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq
}

func (f *Flow) Subscribe(o Observer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, o)
}

// RequestChallenge issues a new code for subject. Only allowed from Idle;
// otherwise it fails with ErrAlreadyInProgress and leaves the outstanding
// challenge alone.
func (f *Flow) RequestChallenge(ctx context.Context, subject string, purpose models.Purpose) error {
	if purpose != f.purpose {
		return &client.ValidationError{Field: "purpose", Message: fmt.Sprintf("flow handles %s, not %s", f.purpose, purpose)}
	}
	if subject == "" {
		return &client.ValidationError{Field: "subject", Message: "cannot be empty"}
	}

	f.mu.Lock()
	if f.state != StateIdle {
		f.mu.Unlock()
		return ErrAlreadyInProgress
	}
	f.seq++
	seq := f.seq
	f.failure = FailureNone
	f.challenge = &models.OtpChallenge{Subject: subject, Purpose: f.purpose}
	f.transition(StateRequested, FailureNone)
	f.mu.Unlock()

	err := f.channel.Issue(ctx, subject)

	f.mu.Lock()
	defer f.mu.Unlock()

	if seq != f.seq {
		f.log.Debug(ctx, "dropping stale issue response", "seq", seq, "current", f.seq)
		return stale(err)
	}
	if err != nil {
		f.challenge = nil
		f.transition(StateIdle, FailureNone)
		f.log.Warn(ctx, "issuing code failed", "error", err)
		return &RequestError{Err: err}
	}

	f.transition(StateAwaitingCode, FailureNone)
	f.log.Info(ctx, "code issued")
	return nil
}

// SubmitCode checks code against the outstanding challenge. Only allowed
// from AwaitingCode; malformed codes are rejected before any network call.
//
// Outcomes: Verified; Failed(InvalidCode) then AwaitingCode; Failed(Expired)
// then Idle. A transport failure returns to AwaitingCode and a rejected
// session to Idle, both with the error passed through.
func (f *Flow) SubmitCode(ctx context.Context, code string) error {
	f.mu.Lock()
	if f.state != StateAwaitingCode {
		st := f.state
		f.mu.Unlock()
		return &StateError{Op: "submit code", State: st}
	}
	if err := ValidateCode(code, f.codeLength); err != nil {
		f.mu.Unlock()
		return err
	}
	f.seq++
	seq := f.seq
	subject := f.challenge.Subject
	f.challenge.Code = code
	f.transition(StateVerifying, FailureNone)
	f.mu.Unlock()

	err := f.channel.Confirm(ctx, subject, code)

	f.mu.Lock()
	defer f.mu.Unlock()

	if seq != f.seq {
		f.log.Debug(ctx, "dropping stale confirm response", "seq", seq, "current", f.seq)
		return stale(err)
	}

	switch {
	case err == nil:
		f.challenge = nil
		f.failure = FailureNone
		f.transition(StateVerified, FailureNone)
		f.log.Info(ctx, "code verified")
		return nil

	case errors.Is(err, client.ErrOTPExpired):
		f.failure = FailureExpired
		f.challenge = nil
		f.transition(StateFailed, FailureExpired)
		f.transition(StateIdle, FailureExpired)
		return &OtpError{Reason: ReasonExpired, Message: err.Error(), Err: err}

	case errors.Is(err, client.ErrOTPRejected):
		f.failure = FailureInvalidCode
		f.challenge.Code = ""
		f.transition(StateFailed, FailureInvalidCode)
		f.transition(StateAwaitingCode, FailureInvalidCode)
		return &OtpError{Reason: ReasonInvalidCode, Message: err.Error(), Err: err}

	case errors.Is(err, client.ErrUnauthorized):
		f.challenge = nil
		f.transition(StateIdle, FailureNone)
		return err

	default:
		f.challenge.Code = ""
		f.transition(StateAwaitingCode, FailureNone)
		f.log.Warn(ctx, "confirm failed", "error", err)
		return err
	}
}

// Cancel abandons the outstanding challenge and returns to Idle. Any
// response still in flight is discarded when it arrives. Cancelling a
// Verified flow is an error; use Reset once the result has been consumed.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateVerified:
		return &StateError{Op: "cancel", State: f.state}
	case StateIdle:
		return nil
	}

	f.seq++
	f.challenge = nil
	f.failure = FailureNone
	f.transition(StateIdle, FailureNone)
	f.log.Info(context.Background(), "verification cancelled")
	return nil
}

// Reset returns the flow to Idle from any state.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	f.challenge = nil
	f.failure = FailureNone
	if f.state != StateIdle {
		f.transition(StateIdle, FailureNone)
	}
}

// transition must be called with f.mu held.
func (f *Flow) transition(to State, failure Failure) {
	t := Transition{From: f.state, To: to, Failure: failure, Seq: f.seq}
	f.state = to
	for _, o := range f.observers {
		o(t)
	}
}

// stale is the result of a superseded call: its own failure if it had one,
// otherwise ErrStaleOperation.
func stale(err error) error {
	if err != nil {
		return err
	}
	return ErrStaleOperation
}

// ValidateCode checks that code is exactly length ASCII digits.
func ValidateCode(code string, length int) error {
	if len(code) != length {
		return &client.ValidationError{Field: "code", Message: fmt.Sprintf("must be %d digits", length)}
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return &client.ValidationError{Field: "code", Message: "must contain digits only"}
		}
	}
	return nil
}
