// Package client is the portal client's session layer.
//
// # Overview
//
// HTTPClient wraps every call to the patient portal REST API and owns the
// process-wide Session: it is created by a successful Login and destroyed by
// Logout or by any authenticated call the server answers with 401/403. The
// session credential is a cookie held in a resettable jar; no call takes an
// explicit token.
//
// Calls are never retried automatically. Each failure is classified:
//
//   - *ValidationError  (ErrValidation)   bad input, usually never sent
//   - *AuthError        (ErrUnauthorized) credential or session rejection
//   - *NetworkError     (ErrUnavailable)  transport failure or 5xx
//   - *ServerError      (ErrServer)       business-rule rejection
//   - *OTPRejectedError (ErrOTPRejected / ErrOTPExpired)
//
// The package also bootstraps the local SQLite database (InitDatabase,
// RunMigrations) used by the profile cache.
package client
