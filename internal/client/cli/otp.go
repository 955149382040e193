package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/aldente/internal/client/nav"
	"github.com/dmitrijs2005/aldente/internal/client/verification"
)

// SubmitCode confirms the code of whichever verification is waiting for one.
func (a *App) SubmitCode(ctx context.Context, code string) error {
	switch {
	case a.auth.SignupFlow().State() != verification.StateIdle:
		if err := a.auth.ConfirmSignUp(ctx, code); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Account verified. You can now sign in.")
		return nil

	case a.email.Flow().State() != verification.StateIdle:
		if _, err := a.email.Confirm(ctx, code); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Email address updated.")
		return nil

	default:
		return errNoVerification
	}
}

// Cancel abandons the verification in progress.
func (a *App) Cancel(ctx context.Context) error {
	switch {
	case a.auth.SignupFlow().State() != verification.StateIdle:
		return a.auth.CancelSignUp()

	case a.email.Flow().State() != verification.StateIdle:
		if err := a.email.Cancel(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Email change cancelled.")
		if p, ok := a.store.Committed(); ok {
			a.Navigate(nav.ToProfile(p))
		}
		return nil

	default:
		return errNoVerification
	}
}
