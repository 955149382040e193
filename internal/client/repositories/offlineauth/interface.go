package offlineauth

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("no offline credentials")

// Record is the verifier of the last user who signed in online.
type Record struct {
	Username string
	Salt     []byte
	Verifier []byte
}

type Repository interface {
	// Load returns the stored record or ErrNotFound.
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, r Record) error
	Clear(ctx context.Context) error
}
