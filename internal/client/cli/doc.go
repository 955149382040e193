// Package cli provides the interactive patient portal shell.
//
// It wires configuration, the local profile cache, the portal client and
// the account and profile services, then runs a read-eval-print loop. Every
// navigation request from the core is rendered as a text screen.
//
// Key features:
//   - Login / Logout, with redirect to sign-in when the session is rejected
//   - Sign up with emailed code confirmation
//   - Profile view and edit with save or discard
//   - Email change confirmed by code
//   - Offline profile view from the local cache
//
// The shell is started via App.Run(ctx), which blocks until the user exits.
package cli
