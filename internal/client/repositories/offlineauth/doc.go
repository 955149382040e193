// Package offlineauth stores what the shell needs to check a password while
// the portal is unreachable: the username, a random salt and the verifier
// derived from the password (see internal/cryptox). The password itself is
// never written.
//
// At most one user is kept; saving another user replaces the record in one
// transaction. The record is cleared together with the profile cache when
// the session ends.
package offlineauth
