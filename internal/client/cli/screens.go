package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/aldente/internal/client/client"
	"github.com/dmitrijs2005/aldente/internal/client/models"
	"github.com/dmitrijs2005/aldente/internal/client/nav"
)

// Navigate implements nav.Bridge by rendering the requested screen.
func (a *App) Navigate(r nav.Route) {
	a.mu.Lock()
	a.screen = r
	a.mu.Unlock()

	a.log.Debug(context.Background(), "navigate", "route", r.String())
	a.render(r)
}

// Open shows one of the informational screens.
func (a *App) Open(ctx context.Context, screen string) error {
	if !a.isLoggedIn() {
		return client.ErrNotSignedIn
	}
	switch screen {
	case "calendar":
		a.Navigate(nav.To(nav.ScreenCalendar))
	case "history":
		a.Navigate(nav.To(nav.ScreenHistory))
	case "notifications":
		a.Navigate(nav.To(nav.ScreenNotifications))
	default:
		return fmt.Errorf("unknown screen %q", screen)
	}
	return nil
}

func (a *App) render(r nav.Route) {
	w := a.out
	fmt.Fprintf(w, "== %s ==\n", r.Screen)

	switch r.Screen {
	case nav.ScreenSignIn:
		fmt.Fprintln(w, "Type 'login' to sign in or 'signup' to create an account.")

	case nav.ScreenSignUp:
		fmt.Fprintln(w, "Type 'signup' to fill in the registration form.")

	case nav.ScreenHome:
		if p, ok := r.Params.(nav.ProfileParams); ok {
			fmt.Fprintf(w, "Welcome, %s!\n", p.Profile.FullName())
		}
		fmt.Fprintln(w, "Type 'profile', 'calendar', 'history', 'notifications' or 'logout'.")

	case nav.ScreenProfile:
		if p, ok := r.Params.(nav.ProfileParams); ok {
			printProfile(a, p.Profile)
		}
		fmt.Fprintln(w, "Type 'edit' to change details or 'email <address>' to change your email.")

	case nav.ScreenOTPEntry:
		if p, ok := r.Params.(nav.OTPParams); ok {
			fmt.Fprintf(w, "We sent a %d-digit code to %s.\n", a.config.OTPLength, otpDestination(p))
		}
		fmt.Fprintln(w, "Type 'code <digits>' to confirm or 'cancel' to abort.")

	default:
		fmt.Fprintln(w, "Nothing to show yet.")
	}
}

func otpDestination(p nav.OTPParams) string {
	if p.Purpose == models.PurposeSignupConfirm {
		return "the email address registered for " + p.Subject
	}
	return p.Subject
}

func printProfile(a *App, p models.Profile) {
	fmt.Fprintf(a.out, "%-14s %s\n", "Username:", p.Username)
	fmt.Fprintf(a.out, "%-14s %s\n", "First name:", p.FirstName)
	fmt.Fprintf(a.out, "%-14s %s\n", "Middle name:", p.MiddleName)
	fmt.Fprintf(a.out, "%-14s %s\n", "Last name:", p.LastName)
	fmt.Fprintf(a.out, "%-14s %s\n", "Email:", p.Email)
	fmt.Fprintf(a.out, "%-14s %s\n", "Phone number:", p.PhoneNumber)
	fmt.Fprintf(a.out, "%-14s %s\n", "Address:", p.Address)
}
