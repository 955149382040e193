package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/aldente/internal/client/client"
	"github.com/dmitrijs2005/aldente/internal/client/config"
	"github.com/dmitrijs2005/aldente/internal/client/nav"
	"github.com/dmitrijs2005/aldente/internal/client/profile"
	"github.com/dmitrijs2005/aldente/internal/client/repositories/offlineauth"
	"github.com/dmitrijs2005/aldente/internal/client/repositories/profilecache"
	"github.com/dmitrijs2005/aldente/internal/client/services"
	"github.com/dmitrijs2005/aldente/internal/client/verification"
	"github.com/dmitrijs2005/aldente/internal/logging"
)

type App struct {
	config *config.Config
	log    logging.Logger
	db     *sql.DB

	api   *client.HTTPClient
	auth  services.AuthService
	store *profile.Store
	email *profile.EmailChange

	reader *bufio.Reader
	out    io.Writer

	mu     sync.Mutex
	screen nav.Route
}

// NewApp opens the local cache and wires the portal client and services.
// The shell reads commands from in and writes screens to out.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	db, err := client.InitDatabase(ctx, c.CacheDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	a := &App{
		config: c,
		log:    log,
		db:     db,
		reader: bufio.NewReader(in),
		out:    out,
		screen: nav.ToSignIn(),
	}

	a.api = client.NewHTTPClient(c.BaseURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(log.With("component", "client")),
	)
	a.api.OnSessionEnded(a.sessionEnded)

	a.store = profile.NewStore(a.api,
		profile.WithCache(profilecache.NewSQLiteRepository(db)),
		profile.WithLogger(log.With("component", "profile")),
	)
	a.email = profile.NewEmailChange(a.store, a.api, a,
		verification.WithCodeLength(c.OTPLength),
		verification.WithLogger(log.With("component", "email")),
	)
	a.auth = services.NewAuthService(a.api, a.store, a.email, a,
		services.WithCodeLength(c.OTPLength),
		services.WithOfflineAuth(offlineauth.NewSQLiteRepository(db)),
		services.WithLogger(log.With("component", "auth")),
	)

	a.email.Flow().Subscribe(a.traceTransition)
	a.auth.SignupFlow().Subscribe(a.traceTransition)

	return a, nil
}

// Run shows the sign-in screen and blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "Aldente patient portal (type 'help' for commands)")
	a.Navigate(nav.ToSignIn())
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) Close() error {
	return a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.api.Session().Authenticated
}

func (a *App) currentScreen() nav.Route {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screen
}

func (a *App) getStatus() string {
	s := ""
	if sess := a.api.Session(); sess.Authenticated && sess.Profile != nil {
		s = sess.Profile.Username + " "
	}
	s += string(a.currentScreen().Screen)
	return fmt.Sprintf("(%s)", s)
}

func (a *App) sessionEnded(reason client.EndReason) {
	if reason == client.EndRejected {
		fmt.Fprintln(a.out, "Your session has expired. Please sign in again.")
	}
}

func (a *App) traceTransition(t verification.Transition) {
	a.log.Debug(context.Background(), "verification transition",
		"from", t.From.String(), "to", t.To.String(), "failure", t.Failure.String(), "seq", t.Seq)
}
