package client

import (
	"context"

	"github.com/dmitrijs2005/aldente/internal/client/models"
)

// Client is the portal API as the rest of the client sees it. Every call is
// made on behalf of the single process-wide Session.
type Client interface {
	Login(ctx context.Context, creds models.Credentials) (models.Profile, error)
	FetchProfile(ctx context.Context) (models.Profile, error)
	UpdateProfile(ctx context.Context, update models.ProfileUpdate) error

	SignUp(ctx context.Context, form models.SignupForm) error
	VerifySignupOTP(ctx context.Context, username, otp string) error

	RequestEmailUpdate(ctx context.Context, newEmail string) error
	VerifyEmailUpdateOTP(ctx context.Context, otp, newEmail string) error

	Logout()
	Session() Session
	// OnSessionEnded registers fn to run after the session is torn down.
	OnSessionEnded(fn func(EndReason))
}

// Session is the authenticated context created by a successful login.
type Session struct {
	Authenticated bool
	Profile       *models.Profile
}

// EndReason tells session observers why the session went away.
type EndReason int

const (
	EndLogout EndReason = iota + 1
	EndRejected
)

func (r EndReason) String() string {
	switch r {
	case EndLogout:
		return "logout"
	case EndRejected:
		return "rejected"
	default:
		return "unknown"
	}
}
