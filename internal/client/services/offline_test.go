package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/aldente/internal/client/client"
	"github.com/dmitrijs2005/aldente/internal/client/models"
	"github.com/dmitrijs2005/aldente/internal/client/nav"
	"github.com/dmitrijs2005/aldente/internal/client/profile"
	"github.com/dmitrijs2005/aldente/internal/client/repositories/offlineauth"
	"github.com/dmitrijs2005/aldente/internal/client/repositories/profilecache"
)

type memCache struct {
	mu    sync.Mutex
	entry *profilecache.Entry
}

func (m *memCache) Load(ctx context.Context) (profilecache.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entry == nil {
		return profilecache.Entry{}, profilecache.ErrNotFound
	}
	return *m.entry, nil
}

func (m *memCache) Save(ctx context.Context, p models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = &profilecache.Entry{Profile: p, SavedAt: time.Now()}
	return nil
}

func (m *memCache) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = nil
	return nil
}

type memOffline struct {
	mu      sync.Mutex
	rec     *offlineauth.Record
	saveErr error
}

func (m *memOffline) Load(ctx context.Context) (offlineauth.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return offlineauth.Record{}, offlineauth.ErrNotFound
	}
	return *m.rec, nil
}

func (m *memOffline) Save(ctx context.Context, r offlineauth.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.rec = &r
	return nil
}

func (m *memOffline) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}

// newOfflineService builds a service over cache and creds, as a freshly
// started shell would.
func newOfflineService(c client.Client, cache *memCache, creds *memOffline) (AuthService, *profile.Store) {
	rec := &nav.Recorder{}
	store := profile.NewStore(c, profile.WithCache(cache))
	email := profile.NewEmailChange(store, c, rec)
	return NewAuthService(c, store, email, rec, WithOfflineAuth(creds)), store
}

var portalDown = &client.AuthError{Reason: client.ReasonServerUnavailable}

// signedInOnce logs jdoe in online and returns the cache and credentials
// a later run finds on disk.
func signedInOnce(t *testing.T) (*memCache, *memOffline) {
	t.Helper()
	cache, creds := &memCache{}, &memOffline{}
	svc, _ := newOfflineService(&fakeClient{LoginRet: jdoe}, cache, creds)

	_, err := svc.Login(context.Background(), models.Credentials{Username: "jdoe", Password: "secret"})
	require.NoError(t, err)
	return cache, creds
}

func TestLogin_SavesVerifierNotPassword(t *testing.T) {
	_, creds := signedInOnce(t)

	rec, err := creds.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jdoe", rec.Username)
	assert.NotEmpty(t, rec.Salt)
	assert.NotEmpty(t, rec.Verifier)
	assert.NotContains(t, string(rec.Verifier), "secret")
}

func TestOfflineLogin(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "matching password", username: "jdoe", password: "secret"},
		{name: "wrong password", username: "jdoe", password: "WRONG-PASSWORD", wantErr: client.ErrInvalidCredentials},
		{name: "empty password", username: "jdoe", password: "", wantErr: client.ErrInvalidCredentials},
		{name: "other user", username: "asmith", password: "secret", wantErr: ErrLocalDataNotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, creds := signedInOnce(t)
			svc, store := newOfflineService(&fakeClient{LoginErr: portalDown}, cache, creds)

			p, err := svc.OfflineLogin(context.Background(), models.Credentials{Username: tt.username, Password: tt.password})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, models.Profile{}, p)
				_, ok := store.Committed()
				assert.False(t, ok, "nothing is shown on a failed offline login")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, jdoe, p)
			stale, _ := store.Stale()
			assert.True(t, stale)
		})
	}
}

func TestOfflineLogin_NoData(t *testing.T) {
	svc, _ := newOfflineService(&fakeClient{}, &memCache{}, &memOffline{})

	_, err := svc.OfflineLogin(context.Background(), models.Credentials{Username: "jdoe", Password: "secret"})
	require.ErrorIs(t, err, ErrLocalDataNotAvailable)
}

func TestOfflineLogin_Disabled(t *testing.T) {
	h := newHarness(&fakeClient{LoginRet: jdoe})

	_, err := h.svc.OfflineLogin(context.Background(), models.Credentials{Username: "jdoe", Password: "secret"})
	require.ErrorIs(t, err, ErrLocalDataNotAvailable)
}

func TestOfflineLogin_VerifierWithoutProfile(t *testing.T) {
	cache, creds := signedInOnce(t)
	require.NoError(t, cache.Clear(context.Background()))
	svc, _ := newOfflineService(&fakeClient{LoginErr: portalDown}, cache, creds)

	_, err := svc.OfflineLogin(context.Background(), models.Credentials{Username: "jdoe", Password: "secret"})
	require.ErrorIs(t, err, ErrLocalDataNotAvailable)
}

func TestLogout_ClearsOfflineData(t *testing.T) {
	cache, creds := &memCache{}, &memOffline{}
	fc := &fakeClient{LoginRet: jdoe}
	svc, _ := newOfflineService(fc, cache, creds)
	ctx := context.Background()

	_, err := svc.Login(ctx, models.Credentials{Username: "jdoe", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx))

	_, err = creds.Load(ctx)
	require.ErrorIs(t, err, offlineauth.ErrNotFound)
	_, err = svc.OfflineLogin(ctx, models.Credentials{Username: "jdoe", Password: "secret"})
	require.ErrorIs(t, err, ErrLocalDataNotAvailable)
}

func TestLogin_OfflineSaveFailureKeepsSession(t *testing.T) {
	creds := &memOffline{saveErr: errors.New("disk full")}
	fc := &fakeClient{LoginRet: jdoe}
	svc, _ := newOfflineService(fc, &memCache{}, creds)

	_, err := svc.Login(context.Background(), models.Credentials{Username: "jdoe", Password: "secret"})
	require.NoError(t, err)
	assert.True(t, fc.Session().Authenticated)
}
