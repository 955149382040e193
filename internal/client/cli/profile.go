package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/aldente/internal/client/client"
	"github.com/dmitrijs2005/aldente/internal/client/nav"
	"github.com/dmitrijs2005/aldente/internal/client/profile"
)

// Profile loads the profile from the portal and shows it. When the portal
// is unreachable the cached copy is shown instead.
func (a *App) Profile(ctx context.Context) error {
	p, err := a.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, client.ErrUnavailable) {
			return err
		}
		cached, rerr := a.store.Restore(ctx)
		if rerr != nil {
			return err
		}
		if stale, savedAt := a.store.Stale(); stale {
			fmt.Fprintf(a.out, "The portal is unreachable; showing your profile as of %s.\n", savedAt.Local().Format("2006-01-02 15:04"))
		} else {
			fmt.Fprintln(a.out, "The portal is unreachable; showing your last loaded profile.")
		}
		p = cached
	}
	a.Navigate(nav.ToProfile(p))
	return nil
}

func (a *App) Edit(ctx context.Context) error {
	if err := a.store.BeginEdit(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Editing profile. Fields: %s\n", strings.Join(profile.EditableFields, ", "))
	fmt.Fprintln(a.out, "Use 'set <field> <value>', then 'save' or 'discard'.")
	return nil
}

func (a *App) Set(ctx context.Context, field, value string) error {
	if err := a.store.SetField(field, value); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s = %q (unsaved)\n", field, value)
	return nil
}

func (a *App) Save(ctx context.Context) error {
	p, err := a.store.CommitEdit(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile saved.")
	a.Navigate(nav.ToProfile(p))
	return nil
}

func (a *App) Discard(ctx context.Context) error {
	if err := a.store.DiscardEdit(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Changes discarded.")
	if p, ok := a.store.Committed(); ok {
		a.Navigate(nav.ToProfile(p))
	}
	return nil
}

func (a *App) ChangeEmail(ctx context.Context, email string) error {
	return a.email.RequestChange(ctx, email)
}
