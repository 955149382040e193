package profile

import (
	"context"
	"net/mail"
	"strings"
	"sync"

	"github.com/dmitrijs2005/aldente/internal/client/client"
	"github.com/dmitrijs2005/aldente/internal/client/models"
	"github.com/dmitrijs2005/aldente/internal/client/nav"
	"github.com/dmitrijs2005/aldente/internal/client/verification"
	"github.com/dmitrijs2005/aldente/internal/logging"
)

// EmailAPI is the part of the portal client used to change the email.
type EmailAPI interface {
	RequestEmailUpdate(ctx context.Context, newEmail string) error
	VerifyEmailUpdateOTP(ctx context.Context, otp, newEmail string) error
}

// emailChannel adapts EmailAPI to a verification channel whose subject is
// the new address.
type emailChannel struct {
	api EmailAPI
}

func (c emailChannel) Issue(ctx context.Context, newEmail string) error {
	return c.api.RequestEmailUpdate(ctx, newEmail)
}

func (c emailChannel) Confirm(ctx context.Context, newEmail, code string) error {
	return c.api.VerifyEmailUpdateOTP(ctx, code, newEmail)
}

// EmailChange moves the committed email to a new address once the user
// proves they own it. The new address is held in memory only and reaches
// the Store exactly once, after a verified code.
type EmailChange struct {
	store *Store
	flow  *verification.Flow
	nav   nav.Bridge
	log   logging.Logger

	mu      sync.Mutex
	pending string
	epoch   uint64
	op      uint64
}

func NewEmailChange(store *Store, api EmailAPI, bridge nav.Bridge, opts ...verification.Option) *EmailChange {
	if bridge == nil {
		bridge = nav.Discard
	}
	opts = append([]verification.Option{verification.WithLogger(store.log)}, opts...)
	return &EmailChange{
		store: store,
		flow:  verification.New(models.PurposeEmailChange, emailChannel{api: api}, opts...),
		nav:   bridge,
		log:   store.log.With("flow", "email_change"),
	}
}

// Flow exposes the underlying verification flow for observers.
func (e *EmailChange) Flow() *verification.Flow { return e.flow }

// Pending returns the address waiting for confirmation, if any.
func (e *EmailChange) Pending() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending, e.pending != ""
}

// RequestChange asks the portal to send a code to newEmail and opens the
// code entry screen.
func (e *EmailChange) RequestChange(ctx context.Context, newEmail string) error {
	newEmail = strings.TrimSpace(newEmail)
	if err := validateEmail(newEmail); err != nil {
		return err
	}
	current, ok := e.store.Committed()
	if !ok {
		return ErrNoProfile
	}
	if strings.EqualFold(current.Email, newEmail) {
		return &client.ValidationError{Field: "email", Message: "is the same as the current address"}
	}

	e.mu.Lock()
	if e.pending != "" {
		e.mu.Unlock()
		return verification.ErrAlreadyInProgress
	}
	e.op++
	op := e.op
	e.pending = newEmail
	e.epoch = e.store.currentEpoch()
	e.mu.Unlock()

	if err := e.flow.RequestChallenge(ctx, newEmail, models.PurposeEmailChange); err != nil {
		e.clearPending(op)
		return err
	}

	e.log.Info(ctx, "email change requested")
	e.nav.Navigate(nav.ToOTPEntry(newEmail, models.PurposeEmailChange))
	return nil
}

// Confirm submits code. On success the committed email becomes the pending
// address and the profile screen is shown.
func (e *EmailChange) Confirm(ctx context.Context, code string) (models.Profile, error) {
	e.mu.Lock()
	op := e.op
	e.mu.Unlock()

	if err := e.flow.SubmitCode(ctx, code); err != nil {
		// Expiry and session loss leave the flow idle; the address is void.
		if e.flow.State() == verification.StateIdle {
			e.clearPending(op)
		}
		return models.Profile{}, err
	}

	defer e.flow.Reset()

	e.mu.Lock()
	if e.op != op || e.pending == "" {
		e.mu.Unlock()
		return models.Profile{}, ErrDiscarded
	}
	email, epoch := e.pending, e.epoch
	e.pending = ""
	e.op++
	e.mu.Unlock()

	p, err := e.store.applyEmail(ctx, epoch, email)
	if err != nil {
		return models.Profile{}, err
	}

	e.log.Info(ctx, "email changed")
	e.nav.Navigate(nav.ToProfile(p))
	return p, nil
}

// Cancel drops the pending address. A verified change cannot be cancelled.
func (e *EmailChange) Cancel() error {
	if err := e.flow.Cancel(); err != nil {
		return err
	}
	e.mu.Lock()
	e.pending = ""
	e.op++
	e.mu.Unlock()
	return nil
}

// Reset abandons any change in progress. Used on logout.
func (e *EmailChange) Reset() {
	e.flow.Reset()
	e.mu.Lock()
	e.pending = ""
	e.op++
	e.mu.Unlock()
}

func (e *EmailChange) clearPending(op uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.op == op {
		e.pending = ""
	}
}

func validateEmail(s string) error {
	if s == "" {
		return &client.ValidationError{Field: "email", Message: "cannot be empty"}
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return &client.ValidationError{Field: "email", Message: "is not a valid address"}
	}
	return nil
}
