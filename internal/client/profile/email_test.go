package profile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/aldente/internal/client/client"
	"github.com/dmitrijs2005/aldente/internal/client/models"
	"github.com/dmitrijs2005/aldente/internal/client/nav"
	"github.com/dmitrijs2005/aldente/internal/client/verification"
	"github.com/dmitrijs2005/aldente/internal/portaltest"
)

func newEmailChange(t *testing.T, api *fakeAPI) (*EmailChange, *Store, *nav.Recorder) {
	t.Helper()
	s := loadedStore(t, api)
	rec := &nav.Recorder{}
	return NewEmailChange(s, api, rec), s, rec
}

func committedEmail(s *Store) string {
	p, _ := s.Committed()
	return p.Email
}

func TestEmailChange_HappyPath(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{profile: jdoe}
	e, s, rec := newEmailChange(t, api)

	require.NoError(t, e.RequestChange(ctx, "new@x.com"))

	pending, ok := e.Pending()
	require.True(t, ok)
	assert.Equal(t, "new@x.com", pending)
	assert.Equal(t, jdoe.Email, committedEmail(s))

	last, _ := rec.Last()
	assert.Equal(t, nav.ToOTPEntry("new@x.com", models.PurposeEmailChange), last)

	p, err := e.Confirm(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", p.Email)
	assert.Equal(t, "new@x.com", committedEmail(s))

	want := jdoe
	want.Email = "new@x.com"
	last, _ = rec.Last()
	assert.Equal(t, nav.ToProfile(want), last)

	_, ok = e.Pending()
	assert.False(t, ok)
	assert.Equal(t, verification.StateIdle, e.Flow().State())
}

func TestEmailChange_RequestValidation(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{"empty", ""},
		{"no at", "new.x.com"},
		{"display name", "New <new@x.com>"},
		{"same as current", "JDOE@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{profile: jdoe}
			e, _, rec := newEmailChange(t, api)

			err := e.RequestChange(context.Background(), tt.email)
			require.ErrorIs(t, err, client.ErrValidation)
			assert.Empty(t, api.requested)
			assert.Empty(t, rec.Routes())
		})
	}
}

func TestEmailChange_RequestFailureDropsPending(t *testing.T) {
	api := &fakeAPI{profile: jdoe, requestErr: &client.ServerError{Status: 409, Message: "Email already in use"}}
	e, _, rec := newEmailChange(t, api)

	err := e.RequestChange(context.Background(), "taken@x.com")

	var reqErr *verification.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.ErrorIs(t, err, client.ErrServer)
	_, ok := e.Pending()
	assert.False(t, ok)
	assert.Empty(t, rec.Routes())
}

func TestEmailChange_SecondRequestRejected(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{profile: jdoe}
	e, _, _ := newEmailChange(t, api)

	require.NoError(t, e.RequestChange(ctx, "new@x.com"))
	require.ErrorIs(t, e.RequestChange(ctx, "other@x.com"), verification.ErrAlreadyInProgress)

	pending, _ := e.Pending()
	assert.Equal(t, "new@x.com", pending)
}

func TestEmailChange_ExpiredCodeVoidsPending(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{profile: jdoe}
	e, s, _ := newEmailChange(t, api)
	require.NoError(t, e.RequestChange(ctx, "new@x.com"))

	api.verifyErr = &client.OTPRejectedError{Expired: true, Message: "OTP expired"}
	_, err := e.Confirm(ctx, "123456")
	require.ErrorIs(t, err, verification.ErrExpired)

	_, ok := e.Pending()
	assert.False(t, ok)
	assert.Equal(t, jdoe.Email, committedEmail(s))
}

// The committed email changes only when the latest terminal event for the
// pending address was a verified confirm.
func TestEmailChange_AtomicApply(t *testing.T) {
	type step struct {
		op   string // request, confirm, cancel
		arg  string
		want string // committed email after the step
	}
	tests := []struct {
		name  string
		steps []step
	}{
		{
			name: "wrong code then cancel",
			steps: []step{
				{"request", "a@x.com", "jdoe@x.com"},
				{"confirm", "000000", "jdoe@x.com"},
				{"cancel", "", "jdoe@x.com"},
			},
		},
		{
			name: "wrong code then right code",
			steps: []step{
				{"request", "a@x.com", "jdoe@x.com"},
				{"confirm", "000000", "jdoe@x.com"},
				{"confirm", "123456", "a@x.com"},
			},
		},
		{
			name: "cancel then new request verified",
			steps: []step{
				{"request", "a@x.com", "jdoe@x.com"},
				{"cancel", "", "jdoe@x.com"},
				{"confirm", "123456", "jdoe@x.com"},
				{"request", "b@x.com", "jdoe@x.com"},
				{"confirm", "123456", "b@x.com"},
			},
		},
		{
			name: "two verified changes",
			steps: []step{
				{"request", "a@x.com", "jdoe@x.com"},
				{"confirm", "123456", "a@x.com"},
				{"cancel", "", "a@x.com"},
				{"request", "b@x.com", "a@x.com"},
				{"confirm", "123456", "b@x.com"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			api := &fakeAPI{profile: jdoe}
			e, s, _ := newEmailChange(t, api)

			for i, st := range tt.steps {
				switch st.op {
				case "request":
					_ = e.RequestChange(ctx, st.arg)
				case "confirm":
					_, _ = e.Confirm(ctx, st.arg)
				case "cancel":
					_ = e.Cancel()
				}
				assert.Equal(t, st.want, committedEmail(s), "step %d (%s %s)", i, st.op, st.arg)
			}
		})
	}
}

func TestEmailChange_CancelDiscardsLateConfirm(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{profile: jdoe}
	e, s, _ := newEmailChange(t, api)
	require.NoError(t, e.RequestChange(ctx, "new@x.com"))

	api.gate = make(chan struct{})
	api.entered = make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		_, err := e.Confirm(ctx, "123456")
		done <- err
	}()
	<-api.entered

	require.NoError(t, e.Cancel())
	close(api.gate)

	require.ErrorIs(t, <-done, verification.ErrStaleOperation)
	assert.Equal(t, jdoe.Email, committedEmail(s))
	_, ok := e.Pending()
	assert.False(t, ok)
}

func TestEmailChange_ResetDuringConfirm(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{profile: jdoe}
	e, s, _ := newEmailChange(t, api)
	require.NoError(t, e.RequestChange(ctx, "new@x.com"))

	s.Reset(ctx)
	s.Adopt(ctx, jdoe)

	_, err := e.Confirm(ctx, "123456")
	require.ErrorIs(t, err, ErrDiscarded)
	assert.Equal(t, jdoe.Email, committedEmail(s))
}

// A pending email change does not survive a restart: the cached and the
// server copy both keep the original address.
func TestEmailChange_ScenarioC_PendingLostOnRestart(t *testing.T) {
	ctx := context.Background()
	srv := portaltest.Start()
	t.Cleanup(srv.Close)
	srv.AddAccount(jdoe, "secret")
	cachePath := filepath.Join(t.TempDir(), "portal.db")

	login := func() *client.HTTPClient {
		c := client.NewHTTPClient(srv.URL())
		_, err := c.Login(ctx, models.Credentials{Username: "jdoe", Password: "secret"})
		require.NoError(t, err)
		return c
	}

	c := login()
	s := NewStore(c, WithCache(openCache(t, cachePath)))
	_, err := s.Load(ctx)
	require.NoError(t, err)
	e := NewEmailChange(s, c, nil)
	require.NoError(t, e.RequestChange(ctx, "new@x.com"))

	// Restart: fresh client, store and email flow on the same cache.
	c2 := client.NewHTTPClient(srv.URL())
	s2 := NewStore(c2, WithCache(openCache(t, cachePath)))
	cached, err := s2.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jdoe@x.com", cached.Email)

	c2 = login()
	s2 = NewStore(c2, WithCache(openCache(t, cachePath)))
	p, err := s2.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jdoe@x.com", p.Email)

	e2 := NewEmailChange(s2, c2, nil)
	_, ok := e2.Pending()
	assert.False(t, ok)
}

func TestEmailChange_AgainstPortal(t *testing.T) {
	ctx := context.Background()
	srv := portaltest.Start()
	t.Cleanup(srv.Close)
	srv.AddAccount(jdoe, "secret")

	c := client.NewHTTPClient(srv.URL())
	_, err := c.Login(ctx, models.Credentials{Username: "jdoe", Password: "secret"})
	require.NoError(t, err)

	s := NewStore(c)
	_, err = s.Load(ctx)
	require.NoError(t, err)
	e := NewEmailChange(s, c, nil)

	require.NoError(t, e.RequestChange(ctx, "new@x.com"))
	_, err = e.Confirm(ctx, "999999")
	require.ErrorIs(t, err, verification.ErrInvalidCode)
	assert.Equal(t, verification.StateAwaitingCode, e.Flow().State())

	_, err = e.Confirm(ctx, portaltest.DefaultCode)
	require.NoError(t, err)

	server, _ := srv.Profile("jdoe")
	assert.Equal(t, "new@x.com", server.Email)
	assert.Equal(t, "new@x.com", committedEmail(s))
}
