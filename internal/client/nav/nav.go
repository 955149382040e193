// Package nav describes the screen transitions the portal core may request.
// Rendering and the navigation chrome live elsewhere; this package only
// defines typed routes and the Bridge that receives them.
package nav

import (
	"fmt"
	"sync"

	"github.com/dmitrijs2005/aldente/internal/client/models"
)

type Screen string

const (
	ScreenSignIn        Screen = "SignIn"
	ScreenSignUp        Screen = "SignUp"
	ScreenHome          Screen = "Home"
	ScreenProfile       Screen = "Profile"
	ScreenOTPEntry      Screen = "OTPEntry"
	ScreenCalendar      Screen = "Calendar"
	ScreenHistory       Screen = "History"
	ScreenNotifications Screen = "Notifications"
)

// ProfileParams is the payload of the Home and Profile screens.
type ProfileParams struct {
	Profile models.Profile
}

// OTPParams is the payload of the OTP entry screen.
type OTPParams struct {
	Subject string
	Purpose models.Purpose
}

// Route is one transition request. Params is nil, ProfileParams or OTPParams
// depending on Screen.
type Route struct {
	Screen Screen
	Params any
}

func (r Route) String() string {
	switch p := r.Params.(type) {
	case OTPParams:
		return fmt.Sprintf("%s(%s, %s)", r.Screen, p.Subject, p.Purpose)
	case ProfileParams:
		return fmt.Sprintf("%s(%s)", r.Screen, p.Profile.Username)
	default:
		return string(r.Screen)
	}
}

func To(s Screen) Route { return Route{Screen: s} }

func ToSignIn() Route { return To(ScreenSignIn) }

func ToHome(p models.Profile) Route {
	return Route{Screen: ScreenHome, Params: ProfileParams{Profile: p}}
}

func ToProfile(p models.Profile) Route {
	return Route{Screen: ScreenProfile, Params: ProfileParams{Profile: p}}
}

func ToOTPEntry(subject string, purpose models.Purpose) Route {
	return Route{Screen: ScreenOTPEntry, Params: OTPParams{Subject: subject, Purpose: purpose}}
}

// Bridge receives transition requests. Implementations must not call back
// into the component that issued the request.
type Bridge interface {
	Navigate(r Route)
}

// BridgeFunc adapts a function to Bridge.
type BridgeFunc func(r Route)

func (f BridgeFunc) Navigate(r Route) { f(r) }

// Discard ignores every request.
var Discard Bridge = BridgeFunc(func(Route) {})

// Recorder remembers every route it receives. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	routes []Route
}

func (r *Recorder) Navigate(route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

// Routes returns a copy of the recorded routes.
func (r *Recorder) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Route(nil), r.routes...)
}

// Last returns the most recent route and false if there is none.
func (r *Recorder) Last() (Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return Route{}, false
	}
	return r.routes[len(r.routes)-1], true
}
