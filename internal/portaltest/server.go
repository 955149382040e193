// Package portaltest is an in-memory stand-in for the patient portal REST
// API. It backs the client tests and the cmd/mockportal development server.
package portaltest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/dmitrijs2005/aldente/internal/client/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	SessionCookie = "connect.sid"
	DefaultCode   = "123456"

	PathLogin              = "/Patient/auth/login"
	PathProfile            = "/Patient/auth/Patient"
	PathUpdate             = "/Patient/auth/Update"
	PathSignUp             = "/Patient/auth/sign-in"
	PathVerifySignup       = "/Patient/auth/Verify-otp"
	PathRequestEmailUpdate = "/Patient/auth/requestEmailUpdate"
	PathVerifyEmailUpdate  = "/Patient/auth/verifyEmailUpdateOTP"
)

type account struct {
	profile  models.Profile
	password string
	verified bool
}

type otp struct {
	code     string
	newEmail string
	expired  bool
}

type failure struct {
	status  int
	message string
}

// Server keeps accounts, sessions and passcodes in memory. Every issued
// passcode equals Code (DefaultCode unless changed).
type Server struct {
	Code string

	mu          sync.Mutex
	accounts    map[string]*account
	sessions    map[string]string
	signupOTPs  map[string]*otp
	emailOTPs   map[string]*otp
	calls       map[string]int
	failures    map[string]failure
	lastRequest map[string]http.Header

	router *mux.Router
	ts     *httptest.Server
}

// New returns a Server that is not listening; use Start or Handler.
func New() *Server {
	s := &Server{
		Code:        DefaultCode,
		accounts:    make(map[string]*account),
		sessions:    make(map[string]string),
		signupOTPs:  make(map[string]*otp),
		emailOTPs:   make(map[string]*otp),
		calls:       make(map[string]int),
		failures:    make(map[string]failure),
		lastRequest: make(map[string]http.Header),
	}
	s.router = s.routes()
	return s
}

// Start serves the API on a local httptest listener.
func Start() *Server {
	s := New()
	s.ts = httptest.NewServer(s.router)
	return s
}

func (s *Server) URL() string { return s.ts.URL }

func (s *Server) Close() {
	if s.ts != nil {
		s.ts.Close()
	}
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.record)

	r.HandleFunc(PathLogin, s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc(PathProfile, s.authed(s.handleProfile)).Methods(http.MethodGet)
	r.HandleFunc(PathUpdate, s.authed(s.handleUpdate)).Methods(http.MethodPut)
	r.HandleFunc(PathSignUp, s.handleSignUp).Methods(http.MethodPost)
	r.HandleFunc(PathVerifySignup, s.handleVerifySignup).Methods(http.MethodPost)
	r.HandleFunc(PathRequestEmailUpdate, s.authed(s.handleRequestEmailUpdate)).Methods(http.MethodPost)
	r.HandleFunc(PathVerifyEmailUpdate, s.authed(s.handleVerifyEmailUpdate)).Methods(http.MethodPost)

	return r
}

// AddAccount registers a verified account.
func (s *Server) AddAccount(p models.Profile, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[p.Username] = &account{profile: p, password: password, verified: true}
}

// Profile returns the server-side copy of username's profile.
func (s *Server) Profile(username string) (models.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[username]
	if !ok {
		return models.Profile{}, false
	}
	return a.profile, true
}

// Verified reports whether username completed sign-up verification.
func (s *Server) Verified(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[username]
	return ok && a.verified
}

// Calls returns how many requests hit path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// LastHeader returns the headers of the latest request to path.
func (s *Server) LastHeader(path string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRequest[path]
}

// FailNext makes the next request to path answer status with message.
func (s *Server) FailNext(path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, message: message}
}

// ExpireSessions invalidates every session cookie issued so far.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]string)
}

// ExpireCodes marks every outstanding passcode as expired.
func (s *Server) ExpireCodes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.signupOTPs {
		o.expired = true
	}
	for _, o := range s.emailOTPs {
		o.expired = true
	}
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		s.lastRequest[r.URL.Path] = r.Header.Clone()
		f, fail := s.failures[r.URL.Path]
		delete(s.failures, r.URL.Path)
		s.mu.Unlock()

		if fail {
			writeMessage(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, username string)

func (s *Server) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		s.mu.Lock()
		username, ok := s.sessions[c.Value]
		s.mu.Unlock()
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Session expired")
			return
		}
		h(w, r, username)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	a, ok := s.accounts[req.Username]
	if !ok || a.password != req.Password {
		s.mu.Unlock()
		writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if !a.verified {
		s.mu.Unlock()
		writeMessage(w, http.StatusForbidden, "Account not verified")
		return
	}
	sid := uuid.NewString()
	s.sessions[sid] = req.Username
	p := a.profile
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: sid, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProfile(w http.ResponseWriter, _ *http.Request, username string) {
	p, ok := s.Profile(username)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Patient not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, username string) {
	var req models.ProfileUpdate
	if !decode(w, r, &req) {
		return
	}
	if req.Username != "" && req.Username != username {
		writeMessage(w, http.StatusBadRequest, "Username cannot be changed")
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		writeMessage(w, http.StatusBadRequest, "First and last name are required")
		return
	}

	s.mu.Lock()
	a := s.accounts[username]
	a.profile = req.Apply(a.profile)
	s.mu.Unlock()

	writeMessage(w, http.StatusOK, "Profile updated successfully")
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var form models.SignupForm
	if !decode(w, r, &form) {
		return
	}
	if missing := form.Missing(); len(missing) > 0 {
		writeMessage(w, http.StatusBadRequest, "Missing field: "+missing[0])
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[form.Username]; exists {
		writeMessage(w, http.StatusConflict, "Username already exists")
		return
	}
	s.accounts[form.Username] = &account{profile: form.Profile, password: form.Password}
	s.signupOTPs[form.Username] = &otp{code: s.Code}

	writeMessage(w, http.StatusCreated, "OTP sent to your email")
}

func (s *Server) handleVerifySignup(w http.ResponseWriter, r *http.Request) {
	var req models.VerifySignupRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.signupOTPs[req.Username]
	switch {
	case !ok:
		writeJSON(w, http.StatusBadRequest, models.VerifyResponse{Message: "No pending verification"})
	case o.expired:
		writeJSON(w, http.StatusOK, models.VerifyResponse{Message: "OTP expired"})
	case o.code != req.OTP:
		writeJSON(w, http.StatusOK, models.VerifyResponse{Message: "Invalid OTP"})
	default:
		delete(s.signupOTPs, req.Username)
		s.accounts[req.Username].verified = true
		writeJSON(w, http.StatusOK, models.VerifyResponse{Success: true, Message: "Account verified"})
	}
}

func (s *Server) handleRequestEmailUpdate(w http.ResponseWriter, r *http.Request, username string) {
	var req models.EmailUpdateRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.profile.Email == req.NewEmail {
			writeMessage(w, http.StatusConflict, "Email already in use")
			return
		}
	}
	s.emailOTPs[username] = &otp{code: s.Code, newEmail: req.NewEmail}
	writeMessage(w, http.StatusOK, "OTP sent to the new email address")
}

func (s *Server) handleVerifyEmailUpdate(w http.ResponseWriter, r *http.Request, username string) {
	var req models.VerifyEmailUpdateRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.emailOTPs[username]
	switch {
	case !ok || o.newEmail != req.NewEmail:
		writeMessage(w, http.StatusBadRequest, "No pending email update")
	case o.expired:
		delete(s.emailOTPs, username)
		writeMessage(w, http.StatusGone, "OTP expired")
	case o.code != req.OTP:
		writeMessage(w, http.StatusBadRequest, "Invalid OTP")
	default:
		delete(s.emailOTPs, username)
		s.accounts[username].profile.Email = req.NewEmail
		writeMessage(w, http.StatusOK, "Email updated successfully")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
