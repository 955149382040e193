// Package profile owns the signed-in patient's profile: the committed copy
// acknowledged by the portal, the edit draft, and the OTP-verified email
// change that is the only way to alter the committed email.
package profile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/aldente/internal/client/models"
	"github.com/dmitrijs2005/aldente/internal/client/repositories/profilecache"
	"github.com/dmitrijs2005/aldente/internal/logging"
)

// API is the part of the portal client the store talks to.
type API interface {
	FetchProfile(ctx context.Context) (models.Profile, error)
	UpdateProfile(ctx context.Context, update models.ProfileUpdate) error
}

// Store keeps the committed profile and an edit draft. The committed copy
// only changes on server acknowledgement; the draft never leaks into it.
//
// At most one network operation runs at a time, and draft edits are refused
// while it runs. Every operation takes a sequence number; Reset and Adopt
// advance it so responses to older operations are dropped.
type Store struct {
	api   API
	cache profilecache.Repository
	log   logging.Logger

	mu        sync.Mutex
	committed *models.Profile
	draft     models.Profile
	editing   bool
	busy      bool
	stale     bool
	savedAt   time.Time
	seq       uint64
	// epoch changes when the profile is replaced wholesale by Reset or Adopt.
	epoch uint64
}

type Option func(*Store)

// WithCache writes every committed profile through to repo and enables
// Restore.
func WithCache(repo profilecache.Repository) Option {
	return func(s *Store) { s.cache = repo }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

func NewStore(api API, opts ...Option) *Store {
	s := &Store{api: api, log: logging.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Committed returns a copy of the committed profile.
func (s *Store) Committed() (models.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committed == nil {
		return models.Profile{}, false
	}
	return *s.committed, true
}

// Draft returns a copy of the edit draft. Outside an edit it equals the
// committed profile.
func (s *Store) Draft() (models.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft, s.committed != nil
}

func (s *Store) Editing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

func (s *Store) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Stale reports whether the committed profile came from the local cache
// rather than the portal, and when it was cached.
func (s *Store) Stale() (bool, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale, s.savedAt
}

// Load fetches the profile from the portal, replaces the committed copy and
// resets the draft to match, ending any edit in progress.
func (s *Store) Load(ctx context.Context) (models.Profile, error) {
	seq, err := s.begin()
	if err != nil {
		return models.Profile{}, err
	}

	p, err := s.api.FetchProfile(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return models.Profile{}, discarded(err)
	}
	s.busy = false
	if err != nil {
		return models.Profile{}, err
	}

	s.setCommittedLocked(ctx, p)
	s.log.Debug(ctx, "profile loaded", "username", p.Username)
	return p, nil
}

// Adopt installs p, typically the login response, as the committed profile.
// Operations still in flight are discarded.
func (s *Store) Adopt(ctx context.Context, p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.epoch++
	s.busy = false
	s.setCommittedLocked(ctx, p)
}

// Restore installs the cached profile when nothing fresher is loaded. The
// result is marked stale.
func (s *Store) Restore(ctx context.Context) (models.Profile, error) {
	if s.cache == nil {
		return models.Profile{}, ErrNoCache
	}

	s.mu.Lock()
	if s.committed != nil && !s.stale {
		p := *s.committed
		s.mu.Unlock()
		return p, nil
	}
	seq := s.seq
	s.mu.Unlock()

	entry, err := s.cache.Load(ctx)
	if err != nil {
		return models.Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq || (s.committed != nil && !s.stale) {
		return models.Profile{}, ErrDiscarded
	}
	p := entry.Profile
	s.committed = &p
	s.draft = p
	s.editing = false
	s.stale = true
	s.savedAt = entry.SavedAt
	return p, nil
}

// BeginEdit copies the committed profile into the draft.
func (s *Store) BeginEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committed == nil {
		return ErrNoProfile
	}
	if s.busy {
		return ErrBusy
	}
	s.draft = *s.committed
	s.editing = true
	return nil
}

// SetField changes one draft field. Only names in EditableFields are
// accepted; values are not validated.
func (s *Store) SetField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editing {
		return ErrNotEditing
	}
	if s.busy {
		return ErrBusy
	}
	f, err := field(&s.draft, name)
	if err != nil {
		return err
	}
	*f = value
	return nil
}

// CommitEdit sends the draft without its email. On success the committed
// copy takes the draft's editable fields and the edit ends. On failure the
// draft and the committed copy are left as they were.
func (s *Store) CommitEdit(ctx context.Context) (models.Profile, error) {
	s.mu.Lock()
	if !s.editing {
		s.mu.Unlock()
		return models.Profile{}, ErrNotEditing
	}
	if s.busy {
		s.mu.Unlock()
		return models.Profile{}, ErrBusy
	}
	s.busy = true
	s.seq++
	seq := s.seq
	update := models.UpdateFrom(s.draft)
	update.Username = s.committed.Username
	s.mu.Unlock()

	err := s.api.UpdateProfile(ctx, update)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return models.Profile{}, discarded(err)
	}
	s.busy = false
	if err != nil {
		s.log.Warn(ctx, "profile update failed", "error", err)
		return models.Profile{}, err
	}

	p := update.Apply(*s.committed)
	s.setCommittedLocked(ctx, p)
	s.log.Info(ctx, "profile updated", "username", p.Username)
	return p, nil
}

// DiscardEdit resets the draft to the committed profile.
func (s *Store) DiscardEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	if s.committed != nil {
		s.draft = *s.committed
	} else {
		s.draft = models.Profile{}
	}
	s.editing = false
	return nil
}

// Reset forgets the profile and clears the cache. Responses still in flight
// are discarded.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	s.seq++
	s.epoch++
	s.committed = nil
	s.draft = models.Profile{}
	s.editing = false
	s.busy = false
	s.stale = false
	s.savedAt = time.Time{}
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			s.log.Warn(ctx, "clearing profile cache failed", "error", err)
		}
	}
}

func (s *Store) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// applyEmail commits a verified email address. Only EmailChange calls it;
// epoch is the value observed when the change was requested.
func (s *Store) applyEmail(ctx context.Context, epoch uint64, email string) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return models.Profile{}, ErrDiscarded
	}
	if s.committed == nil {
		return models.Profile{}, ErrNoProfile
	}

	// Loads and commits still in flight would overwrite the new address.
	s.seq++
	s.busy = false

	p := *s.committed
	p.Email = email
	s.committed = &p
	s.draft.Email = email
	s.writeThrough(ctx, p)
	return p, nil
}

func (s *Store) begin() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return 0, ErrBusy
	}
	s.busy = true
	s.seq++
	return s.seq, nil
}

// setCommittedLocked must be called with s.mu held.
func (s *Store) setCommittedLocked(ctx context.Context, p models.Profile) {
	s.committed = &p
	s.draft = p
	s.editing = false
	s.stale = false
	s.savedAt = time.Time{}
	s.writeThrough(ctx, p)
}

func (s *Store) writeThrough(ctx context.Context, p models.Profile) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Save(ctx, p); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn(ctx, "caching profile failed", "error", err)
	}
}

// discarded reports why a superseded call produced nothing. A failure is
// passed through so the caller still learns of it.
func discarded(err error) error {
	if err != nil {
		return err
	}
	return ErrDiscarded
}
