// Package flow contains the screen controllers that sit between the API
// client and whatever renders them: login, the TOTP challenge step, the
// dashboard and the admin console. Controllers hold view state, guard
// against duplicate submission and report transitions through a Navigator
// and user-facing messages through a Notifier.
package flow

// Screen identifies a navigation target.
type Screen string

const (
	ScreenLogin     Screen = "login"
	ScreenTOTP      Screen = "login/totp"
	ScreenDashboard Screen = "dashboard"
)

// Route is a navigation request. Email rides along to the TOTP screen for
// display only; it is never trusted for identity.
type Route struct {
	Screen Screen
	Email  string
}

// Navigator receives screen transitions.
type Navigator interface {
	Navigate(Route)
}

// Notifier surfaces transient notifications.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}
