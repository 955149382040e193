package profilecache

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/aldente/internal/client/models"
)

var ErrNotFound = errors.New("no cached profile")

// Entry is the last committed profile seen by this client.
type Entry struct {
	Profile models.Profile
	SavedAt time.Time
}

type Repository interface {
	// Load returns the cached profile or ErrNotFound.
	Load(ctx context.Context) (Entry, error)
	// Save replaces the cache with p.
	Save(ctx context.Context, p models.Profile) error
	Clear(ctx context.Context) error
}
