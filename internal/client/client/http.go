package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/aldente/internal/client/models"
	"github.com/dmitrijs2005/aldente/internal/logging"
	"github.com/google/uuid"
)

const (
	pathLogin              = "/Patient/auth/login"
	pathProfile            = "/Patient/auth/Patient"
	pathUpdate             = "/Patient/auth/Update"
	pathSignUp             = "/Patient/auth/sign-in"
	pathVerifySignup       = "/Patient/auth/Verify-otp"
	pathRequestEmailUpdate = "/Patient/auth/requestEmailUpdate"
	pathVerifyEmailUpdate  = "/Patient/auth/verifyEmailUpdateOTP"

	RequestIDHeader = "X-Request-ID"

	maxBodySize = 1 << 20
)

// HTTPClient talks to the portal REST API and owns the session cookie.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	log     logging.Logger
	jar     *sessionJar
	http    *http.Client

	mu      sync.Mutex
	session Session
	gen     uint64
	onEnd   []func(EndReason)
}

type Option func(*HTTPClient)

// WithTimeout bounds every request; zero disables the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// WithTransport replaces the underlying round tripper (tests, proxies).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *HTTPClient) { c.http.Transport = rt }
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	jar := newSessionJar()
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logging.Nop(),
		jar:     jar,
		http:    &http.Client{Jar: jar},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnSessionEnded registers fn to run after the session is torn down, either
// by Logout or because the server rejected it. fn runs without locks held.
func (c *HTTPClient) OnSessionEnded(fn func(EndReason)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEnd = append(c.onEnd, fn)
}

// Session returns a copy of the current session.
func (c *HTTPClient) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s.Profile != nil {
		p := *s.Profile
		s.Profile = &p
	}
	return s
}

// Logout destroys the session locally. The portal has no logout endpoint;
// dropping the cookie is enough.
func (c *HTTPClient) Logout() {
	c.teardown(c.generation(), EndLogout)
}

func (c *HTTPClient) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// teardown ends the session if it is still the one identified by gen.
func (c *HTTPClient) teardown(gen uint64, reason EndReason) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	wasAuthenticated := c.session.Authenticated
	c.session = Session{}
	c.gen++
	c.jar.Reset()
	hooks := append([]func(EndReason){}, c.onEnd...)
	c.mu.Unlock()

	if !wasAuthenticated {
		return
	}
	c.log.Info(context.Background(), "session ended", "reason", reason.String())
	for _, fn := range hooks {
		fn(reason)
	}
}

func (c *HTTPClient) Login(ctx context.Context, creds models.Credentials) (models.Profile, error) {
	if creds.Username == "" {
		return models.Profile{}, &ValidationError{Field: "username", Message: "username cannot be empty"}
	}
	if creds.Password == "" {
		return models.Profile{}, &ValidationError{Field: "password", Message: "password cannot be empty"}
	}

	gen := c.generation()
	body := models.LoginRequest{Username: creds.Username, Password: creds.Password}

	resp, err := c.send(ctx, "login", http.MethodPost, pathLogin, body)
	if err != nil {
		return models.Profile{}, &AuthError{Reason: ReasonServerUnavailable, Err: err}
	}

	switch {
	case resp.ok():
	case resp.status == http.StatusBadRequest, resp.status == http.StatusUnauthorized,
		resp.status == http.StatusForbidden, resp.status == http.StatusNotFound:
		// A rejected login ends whatever session was open before it.
		c.teardown(gen, EndRejected)
		return models.Profile{}, &AuthError{Reason: ReasonInvalidCredentials, Message: resp.message()}
	case resp.status >= http.StatusInternalServerError:
		return models.Profile{}, &AuthError{Reason: ReasonServerUnavailable, Message: resp.message()}
	default:
		return models.Profile{}, &AuthError{Reason: ReasonUnknown, Message: resp.message()}
	}

	var p models.Profile
	if err := json.Unmarshal(resp.body, &p); err != nil {
		return models.Profile{}, &AuthError{Reason: ReasonUnknown, Err: fmt.Errorf("decode profile: %w", err)}
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		// Logout raced the login: drop whatever cookie the response set.
		c.jar.Reset()
		return models.Profile{}, ErrSessionChanged
	}
	snapshot := p
	c.session = Session{Authenticated: true, Profile: &snapshot}
	c.gen++
	c.mu.Unlock()

	c.log.Info(ctx, "signed in", "username", p.Username)
	return p, nil
}

func (c *HTTPClient) FetchProfile(ctx context.Context) (models.Profile, error) {
	resp, gen, err := c.sendAuthed(ctx, "fetch profile", http.MethodGet, pathProfile, nil)
	if err != nil {
		return models.Profile{}, err
	}
	if !resp.ok() {
		return models.Profile{}, resp.genericError("fetch profile")
	}

	var p models.Profile
	if err := json.Unmarshal(resp.body, &p); err != nil {
		return models.Profile{}, &NetworkError{Op: "fetch profile", Err: fmt.Errorf("decode profile: %w", err)}
	}

	c.mu.Lock()
	if gen == c.gen {
		snapshot := p
		c.session.Profile = &snapshot
	}
	c.mu.Unlock()
	return p, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, update models.ProfileUpdate) error {
	resp, _, err := c.sendAuthed(ctx, "update profile", http.MethodPut, pathUpdate, update)
	if err != nil {
		return err
	}

	switch resp.status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return &ValidationError{Message: resp.messageOr("profile update rejected")}
	}
	if !resp.ok() {
		return resp.genericError("update profile")
	}
	return nil
}

func (c *HTTPClient) SignUp(ctx context.Context, form models.SignupForm) error {
	if missing := form.Missing(); len(missing) > 0 {
		return &ValidationError{Field: missing[0], Message: "required"}
	}

	resp, err := c.send(ctx, "sign up", http.MethodPost, pathSignUp, form)
	if err != nil {
		return &NetworkError{Op: "sign up", Err: err}
	}
	if !resp.ok() {
		return resp.genericError("sign up")
	}
	return nil
}

func (c *HTTPClient) VerifySignupOTP(ctx context.Context, username, otp string) error {
	body := models.VerifySignupRequest{Username: username, OTP: otp}

	resp, err := c.send(ctx, "verify signup otp", http.MethodPost, pathVerifySignup, body)
	if err != nil {
		return &NetworkError{Op: "verify signup otp", Err: err}
	}

	switch resp.status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusUnprocessableEntity, http.StatusGone:
		return newOTPRejected(resp.status, resp.message())
	}
	if !resp.ok() {
		return resp.genericError("verify signup otp")
	}

	var vr models.VerifyResponse
	if err := json.Unmarshal(resp.body, &vr); err != nil {
		return &ServerError{Status: resp.status, Message: "malformed verification response"}
	}
	if !vr.Success {
		return newOTPRejected(resp.status, vr.Message)
	}
	return nil
}

func (c *HTTPClient) RequestEmailUpdate(ctx context.Context, newEmail string) error {
	body := models.EmailUpdateRequest{NewEmail: newEmail}

	resp, _, err := c.sendAuthed(ctx, "request email update", http.MethodPost, pathRequestEmailUpdate, body)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.genericError("request email update")
	}
	return nil
}

func (c *HTTPClient) VerifyEmailUpdateOTP(ctx context.Context, otp, newEmail string) error {
	body := models.VerifyEmailUpdateRequest{OTP: otp, NewEmail: newEmail}

	resp, _, err := c.sendAuthed(ctx, "verify email update otp", http.MethodPost, pathVerifyEmailUpdate, body)
	if err != nil {
		return err
	}

	switch resp.status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusGone:
		return newOTPRejected(resp.status, resp.message())
	}
	if !resp.ok() {
		return resp.genericError("verify email update otp")
	}
	return nil
}

// sendAuthed performs a session-authenticated call. It refuses to run
// without a session, maps transport failures to *NetworkError and tears the
// session down on 401/403. The returned generation identifies the session
// the call was made under.
func (c *HTTPClient) sendAuthed(ctx context.Context, op, method, path string, in any) (*response, uint64, error) {
	c.mu.Lock()
	gen, authenticated := c.gen, c.session.Authenticated
	c.mu.Unlock()

	if !authenticated {
		return nil, gen, ErrNotSignedIn
	}

	resp, err := c.send(ctx, op, method, path, in)
	if err != nil {
		return nil, gen, &NetworkError{Op: op, Err: err}
	}

	if resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden {
		c.teardown(gen, EndRejected)
		return nil, gen, &AuthError{Reason: ReasonSessionExpired, Message: resp.message()}
	}
	return resp, gen, nil
}

type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool { return r.status >= 200 && r.status < 300 }

func (r *response) message() string {
	var er models.ErrorResponse
	if err := json.Unmarshal(r.body, &er); err != nil {
		return ""
	}
	return er.Message
}

func (r *response) messageOr(fallback string) string {
	if m := r.message(); m != "" {
		return m
	}
	return fallback
}

// genericError classifies a non-2xx status no endpoint-specific rule claimed.
func (r *response) genericError(op string) error {
	if r.status >= http.StatusInternalServerError {
		return &NetworkError{Op: op, Status: r.status, Err: ErrUnavailable}
	}
	return &ServerError{Status: r.status, Message: r.message()}
}

// send performs one request. Only transport and encoding failures are
// returned as errors; any HTTP status is a response.
func (c *HTTPClient) send(ctx context.Context, op, method, path string, in any) (*response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.log.With("op", op, "request_id", requestID)
	started := time.Now()

	res, err := c.http.Do(req)
	if err != nil {
		log.Warn(ctx, "request failed", "error", err)
		return nil, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		log.Warn(ctx, "reading response failed", "error", err)
		return nil, fmt.Errorf("read response: %w", err)
	}

	log.Debug(ctx, "request done", "status", res.StatusCode, "elapsed", time.Since(started))
	return &response{status: res.StatusCode, body: b}, nil
}

// IsTransient reports whether err is worth a manual retry by the user.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
