package cli

import (
	"errors"

	"github.com/dmitrijs2005/aldente/internal/client/client"
	"github.com/dmitrijs2005/aldente/internal/client/profile"
	"github.com/dmitrijs2005/aldente/internal/client/verification"
)

var errNoVerification = errors.New("no verification in progress")

// describe turns an error from the core into one line for the user.
func describe(err error) string {
	var (
		otpErr   *verification.OtpError
		stateErr *verification.StateError
		authErr  *client.AuthError
		valErr   *client.ValidationError
		srvErr   *client.ServerError
	)

	switch {
	case errors.As(err, &otpErr):
		switch otpErr.Reason {
		case verification.ReasonInvalidCode:
			return "Incorrect code, please try again."
		case verification.ReasonExpired:
			return "The code has expired. Please start over to get a new one."
		default:
			return "A verification is already in progress. Finish or cancel it first."
		}
	case errors.As(err, &stateErr):
		return "That is not possible right now (" + stateErr.State.String() + ")."
	case errors.Is(err, client.ErrSessionExpired):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, client.ErrNotSignedIn):
		return "You are not signed in."
	case errors.As(err, &authErr) && authErr.Reason == client.ReasonInvalidCredentials:
		if authErr.Message != "" {
			return authErr.Message
		}
		return "Invalid username or password."
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.Is(err, client.ErrUnavailable):
		return "The portal is unreachable. Check your connection and try again."
	case errors.As(err, &srvErr):
		return srvErr.Error()
	case errors.Is(err, profile.ErrBusy):
		return "Please wait for the current operation to finish."
	case errors.Is(err, profile.ErrNotEditing):
		return "Type 'edit' first."
	case errors.Is(err, profile.ErrNoProfile):
		return "No profile loaded. Type 'profile' first."
	default:
		return err.Error()
	}
}
