// Package mockportal runs the in-memory portal API as a standalone HTTP
// server for local development against cmd/portal.
package mockportal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/aldente/internal/client/models"
	"github.com/dmitrijs2005/aldente/internal/logging"
	"github.com/dmitrijs2005/aldente/internal/mockportal/config"
	"github.com/dmitrijs2005/aldente/internal/portaltest"
)

type App struct {
	config *config.Config
	logger logging.Logger
	portal *portaltest.Server
}

func NewApp(c *config.Config, l logging.Logger) *App {
	p := portaltest.New()
	p.Code = c.Code

	if c.SeedUsername != "" {
		p.AddAccount(models.Profile{
			FirstName: "Demo",
			LastName:  "Patient",
			Email:     c.SeedUsername + "@example.com",
			Username:  c.SeedUsername,
		}, c.SeedPassword)
	}

	return &App{config: c, logger: l.With("module", "mockportal"), portal: p}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run listens on the configured address until ctx is cancelled or a
// termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	ln, err := net.Listen("tcp", app.config.EndpointAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", app.config.EndpointAddr, err)
	}
	return app.serve(ctx, ln)
}

func (app *App) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           app.logRequests(app.portal.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping mock portal...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting mock portal", "address", ln.Addr().String(), "seed_user", app.config.SeedUsername)

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (app *App) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		app.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", r.Header.Get("X-Request-ID"),
			"duration", time.Since(start),
		)
	})
}
