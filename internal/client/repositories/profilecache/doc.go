// Package profilecache keeps the last committed patient profile in the local
// SQLite database so the shell can show it when the portal is unreachable.
//
// Only server-acknowledged data is written here. Drafts and pending email
// addresses stay in memory. The cache holds at most one profile: saving a
// profile for another user drops the previous one in the same transaction.
//
// The table is created by the goose migrations in internal/client/migrations.
package profilecache
