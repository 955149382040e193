package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/aldente/internal/client/client"
	"github.com/dmitrijs2005/aldente/internal/client/models"
	"github.com/dmitrijs2005/aldente/internal/client/nav"
)

// Login prompts for credentials and signs in. The password is wiped
// before returning.
//
// If the portal is unavailable, the cached profile is shown read-only when
// the password matches the one used at the last online sign-in.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	creds := models.Credentials{Username: username, Password: string(password)}
	_, err = a.auth.Login(ctx, creds)
	if err == nil || !errors.Is(err, client.ErrUnavailable) {
		return err
	}

	a.log.Warn(ctx, "portal unavailable, trying offline login", "error", err)
	p, oerr := a.auth.OfflineLogin(ctx, creds)
	if errors.Is(oerr, client.ErrInvalidCredentials) {
		return oerr
	}
	if oerr != nil {
		return err
	}
	_, savedAt := a.store.Stale()
	fmt.Fprintf(a.out, "The portal is unreachable; showing your profile as of %s.\n", savedAt.Local().Format("2006-01-02 15:04"))
	a.Navigate(nav.ToProfile(p))
	return nil
}

// SignUp prompts for the registration form and submits it. On success the
// code entry screen is shown.
func (a *App) SignUp(ctx context.Context) error {
	var form models.SignupForm
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"First name", &form.FirstName},
		{"Middle name (optional)", &form.MiddleName},
		{"Last name", &form.LastName},
		{"Email", &form.Email},
		{"Phone number", &form.PhoneNumber},
		{"Address", &form.Address},
		{"Username", &form.Username},
	}
	for _, f := range fields {
		v, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer wipe(password)
	form.Password = string(password)

	return a.auth.SignUp(ctx, form)
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}
