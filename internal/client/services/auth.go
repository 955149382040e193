// Package services holds the application services the shell drives: signing
// in and out and creating an account.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/aldente/internal/client/client"
	"github.com/dmitrijs2005/aldente/internal/client/models"
	"github.com/dmitrijs2005/aldente/internal/client/nav"
	"github.com/dmitrijs2005/aldente/internal/client/profile"
	"github.com/dmitrijs2005/aldente/internal/client/repositories/offlineauth"
	"github.com/dmitrijs2005/aldente/internal/client/repositories/profilecache"
	"github.com/dmitrijs2005/aldente/internal/client/verification"
	"github.com/dmitrijs2005/aldente/internal/cryptox"
	"github.com/dmitrijs2005/aldente/internal/logging"
)

// ErrLocalDataNotAvailable means there is nothing cached to sign in
// offline with for the given user.
var ErrLocalDataNotAvailable = errors.New("local data not available")

// AuthService defines the account operations of the shell.
//
// Contract:
//   - Login: open a session and show the home screen with the profile.
//     When offline data is enabled, a verifier of the password is saved.
//   - OfflineLogin: check the password against the saved verifier and return
//     the cached profile. No session is opened.
//   - Logout: end the session; local profile state is wiped.
//   - SignUp: submit the registration form and open code entry for the username.
//   - ConfirmSignUp: verify the emailed code; on success go to sign-in.
//   - CancelSignUp: abandon a registration awaiting its code.
//
// Whenever the session ends, for whatever reason, the profile store and any
// email change are reset and the sign-in screen is shown.
type AuthService interface {
	Login(ctx context.Context, creds models.Credentials) (models.Profile, error)
	OfflineLogin(ctx context.Context, creds models.Credentials) (models.Profile, error)
	Logout(ctx context.Context) error
	SignUp(ctx context.Context, form models.SignupForm) error
	ConfirmSignUp(ctx context.Context, code string) error
	CancelSignUp() error
	SignupFlow() *verification.Flow
}

type authService struct {
	client client.Client
	store  *profile.Store
	email  *profile.EmailChange
	nav    nav.Bridge
	log    logging.Logger

	offline offlineauth.Repository

	signup     *verification.Flow
	codeLength int

	mu   sync.Mutex
	form *models.SignupForm
}

type Option func(*authService)

func WithLogger(l logging.Logger) Option {
	return func(a *authService) { a.log = l }
}

// WithOfflineAuth enables offline sign-in backed by repo.
func WithOfflineAuth(repo offlineauth.Repository) Option {
	return func(a *authService) { a.offline = repo }
}

// WithCodeLength sets the expected length of sign-up codes.
func WithCodeLength(n int) Option {
	return func(a *authService) { a.codeLength = n }
}

// NewAuthService wires the service to the portal client and the profile
// components it resets on session end.
func NewAuthService(c client.Client, store *profile.Store, email *profile.EmailChange, bridge nav.Bridge, opts ...Option) AuthService {
	if bridge == nil {
		bridge = nav.Discard
	}
	a := &authService{
		client:     c,
		store:      store,
		email:      email,
		nav:        bridge,
		log:        logging.Nop(),
		codeLength: verification.DefaultCodeLength,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.signup = verification.New(models.PurposeSignupConfirm, signupChannel{a},
		verification.WithCodeLength(a.codeLength), verification.WithLogger(a.log))
	c.OnSessionEnded(a.sessionEnded)
	return a
}

func (a *authService) SignupFlow() *verification.Flow { return a.signup }

func (a *authService) Login(ctx context.Context, creds models.Credentials) (models.Profile, error) {
	p, err := a.client.Login(ctx, creds)
	if err != nil {
		return models.Profile{}, err
	}

	a.store.Adopt(ctx, p)
	a.saveOfflineData(ctx, p.Username, []byte(creds.Password))
	a.nav.Navigate(nav.ToHome(p))
	return p, nil
}

// OfflineLogin returns the cached profile of creds.Username if the password
// matches the verifier saved at the last online login. It returns
// ErrLocalDataNotAvailable when nothing is cached for that user and
// client.ErrInvalidCredentials when the password does not match.
func (a *authService) OfflineLogin(ctx context.Context, creds models.Credentials) (models.Profile, error) {
	if a.offline == nil {
		return models.Profile{}, ErrLocalDataNotAvailable
	}

	rec, err := a.offline.Load(ctx)
	if errors.Is(err, offlineauth.ErrNotFound) {
		return models.Profile{}, ErrLocalDataNotAvailable
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("offline login: %w", err)
	}
	if rec.Username != creds.Username {
		return models.Profile{}, ErrLocalDataNotAvailable
	}
	if !cryptox.CheckPassword([]byte(creds.Password), rec.Salt, rec.Verifier) {
		a.log.Warn(ctx, "offline login rejected", "username", creds.Username)
		return models.Profile{}, client.ErrInvalidCredentials
	}

	p, err := a.store.Restore(ctx)
	if err != nil {
		if errors.Is(err, profile.ErrNoCache) || errors.Is(err, profilecache.ErrNotFound) {
			return models.Profile{}, ErrLocalDataNotAvailable
		}
		return models.Profile{}, fmt.Errorf("offline login: %w", err)
	}
	if p.Username != creds.Username {
		return models.Profile{}, ErrLocalDataNotAvailable
	}
	a.log.Info(ctx, "signed in offline", "username", p.Username)
	return p, nil
}

// saveOfflineData stores a fresh salt and the password verifier. Errors are
// logged only.
func (a *authService) saveOfflineData(ctx context.Context, username string, password []byte) {
	if a.offline == nil {
		return
	}
	salt, err := cryptox.NewSalt()
	if err != nil {
		a.log.Warn(ctx, "offline data not saved", "error", err)
		return
	}
	verifier := cryptox.MakeVerifier(cryptox.DeriveKey(password, salt))
	if err := a.offline.Save(ctx, offlineauth.Record{Username: username, Salt: salt, Verifier: verifier}); err != nil {
		a.log.Warn(ctx, "offline data not saved", "error", err)
	}
}

func (a *authService) Logout(ctx context.Context) error {
	if !a.client.Session().Authenticated {
		return client.ErrNotSignedIn
	}
	a.client.Logout()
	return nil
}

func (a *authService) sessionEnded(reason client.EndReason) {
	ctx := context.Background()
	if a.email != nil {
		a.email.Reset()
	}
	a.store.Reset(ctx)
	if a.offline != nil {
		if err := a.offline.Clear(ctx); err != nil {
			a.log.Warn(ctx, "clearing offline data failed", "error", err)
		}
	}
	a.log.Info(ctx, "local session state cleared", "reason", reason.String())
	a.nav.Navigate(nav.ToSignIn())
}

func (a *authService) SignUp(ctx context.Context, form models.SignupForm) error {
	if missing := form.Missing(); len(missing) > 0 {
		return &client.ValidationError{Field: missing[0], Message: "required"}
	}

	a.mu.Lock()
	if a.form != nil {
		a.mu.Unlock()
		return verification.ErrAlreadyInProgress
	}
	a.form = &form
	a.mu.Unlock()

	err := a.signup.RequestChallenge(ctx, form.Username, models.PurposeSignupConfirm)
	a.wipeForm()
	if err != nil {
		return fmt.Errorf("sign up: %w", err)
	}

	a.log.Info(ctx, "account created, awaiting code", "username", form.Username)
	a.nav.Navigate(nav.ToOTPEntry(form.Username, models.PurposeSignupConfirm))
	return nil
}

func (a *authService) ConfirmSignUp(ctx context.Context, code string) error {
	if err := a.signup.SubmitCode(ctx, code); err != nil {
		return err
	}

	a.signup.Reset()
	a.log.Info(ctx, "account verified")
	a.nav.Navigate(nav.ToSignIn())
	return nil
}

func (a *authService) CancelSignUp() error {
	if err := a.signup.Cancel(); err != nil {
		return err
	}
	a.wipeForm()
	a.nav.Navigate(nav.To(nav.ScreenSignUp))
	return nil
}

// wipeForm drops the stored registration form, password included.
func (a *authService) wipeForm() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.form != nil {
		a.form.Password = ""
		a.form = nil
	}
}

// signupChannel issues sign-up codes by submitting the stored registration
// form; the portal mails the code in response.
type signupChannel struct {
	a *authService
}

func (c signupChannel) Issue(ctx context.Context, username string) error {
	c.a.mu.Lock()
	var form models.SignupForm
	ok := c.a.form != nil && c.a.form.Username == username
	if ok {
		form = *c.a.form
	}
	c.a.mu.Unlock()

	if !ok {
		return &client.ValidationError{Field: "username", Message: "no registration form for " + username}
	}
	return c.a.client.SignUp(ctx, form)
}

func (c signupChannel) Confirm(ctx context.Context, username, code string) error {
	return c.a.client.VerifySignupOTP(ctx, username, code)
}
