package nav

import (
	"testing"

	"github.com/dmitrijs2005/aldente/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutes_CarryTypedParams(t *testing.T) {
	p := models.Profile{Username: "jdoe"}

	r := ToProfile(p)
	require.Equal(t, ScreenProfile, r.Screen)
	assert.Equal(t, ProfileParams{Profile: p}, r.Params)

	r = ToOTPEntry("jdoe", models.PurposeSignupConfirm)
	require.Equal(t, ScreenOTPEntry, r.Screen)
	assert.Equal(t, OTPParams{Subject: "jdoe", Purpose: models.PurposeSignupConfirm}, r.Params)

	assert.Nil(t, ToSignIn().Params)
}

func TestRoute_String(t *testing.T) {
	assert.Equal(t, "SignIn", ToSignIn().String())
	assert.Equal(t, "Home(jdoe)", ToHome(models.Profile{Username: "jdoe"}).String())
	assert.Equal(t, "OTPEntry(new@x.com, email_change)", ToOTPEntry("new@x.com", models.PurposeEmailChange).String())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_, ok := r.Last()
	require.False(t, ok)

	r.Navigate(ToSignIn())
	r.Navigate(To(ScreenCalendar))

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, ScreenCalendar, last.Screen)
	assert.Len(t, r.Routes(), 2)
}

func TestBridgeFunc(t *testing.T) {
	var got Route
	BridgeFunc(func(r Route) { got = r }).Navigate(ToSignIn())
	assert.Equal(t, ScreenSignIn, got.Screen)

	Discard.Navigate(ToSignIn())
}
