package flow

import (
	"context"
	"sync/atomic"

	"github.com/dath-251-thuanle/secureshare/client"
	"github.com/dath-251-thuanle/secureshare/session"
)

// TOTPState is the state of the second-factor challenge screen.
type TOTPState int

const (
	TOTPInitializing TOTPState = iota
	TOTPAwaitingCode
	TOTPVerifying
	TOTPDone
)

// TOTPCodeLength is the fixed length of a second-factor code.
const TOTPCodeLength = 6

// TOTPController runs the second step of a TOTP-protected login. Mount
// validates that a challenge is actually outstanding; Submit answers it.
type TOTPController struct {
	api     *client.Client
	session *session.Session
	nav     Navigator
	notify  Notifier

	state     TOTPState
	cid       string
	email     string
	verifying atomic.Bool
}

func NewTOTPController(api *client.Client, sess *session.Session, nav Navigator, notify Notifier) *TOTPController {
	return &TOTPController{api: api, session: sess, nav: nav, notify: notify}
}

func (c *TOTPController) State() TOTPState { return c.state }

// Email returns the address shown on the challenge screen. Display only.
func (c *TOTPController) Email() string { return c.email }

// Mount reads the outstanding challenge id from the session. Without one the
// screen is unreachable: the user is sent back to login and this controller
// instance is terminal. Returns whether a code may now be collected.
func (c *TOTPController) Mount(email string) bool {
	cid := c.session.LoginChallengeID()
	if cid == "" {
		c.notify.Error("Invalid session. Please login again.")
		c.nav.Navigate(Route{Screen: ScreenLogin})
		c.state = TOTPDone
		return false
	}
	c.cid = cid
	c.email = email
	c.state = TOTPAwaitingCode
	return true
}

// CanSubmit reports whether code is a complete numeric code and no
// verification is in flight.
func (c *TOTPController) CanSubmit(code string) bool {
	return c.state == TOTPAwaitingCode && validCode(code) && !c.verifying.Load()
}

// validCode reports whether code is exactly TOTPCodeLength digits.
func validCode(code string) bool {
	if len(code) != TOTPCodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Submit answers the challenge. On success the session is finalized and the
// user lands on the dashboard; on any failure the screen returns to awaiting
// a code.
func (c *TOTPController) Submit(ctx context.Context, code string) {
	if c.state != TOTPAwaitingCode {
		return
	}
	if !c.verifying.CompareAndSwap(false, true) {
		return
	}
	defer c.verifying.Store(false)
	c.state = TOTPVerifying

	res, err := c.api.LoginTOTP(ctx, c.cid, code)
	if err != nil {
		c.notify.Error(client.ErrorMessage(err, "Invalid or expired TOTP code"))
		c.state = TOTPAwaitingCode
		return
	}
	if res.Kind != client.LoginSucceeded {
		// A 2xx response without a token should not happen under the server
		// contract; treat it as bad credentials rather than a session.
		c.notify.Error("Invalid credentials. Please try again.")
		c.state = TOTPAwaitingCode
		return
	}

	c.session.SetAccessToken(res.AccessToken)
	if res.User != nil {
		c.session.SetCurrentUser(res.User)
	}
	c.session.ClearLoginChallengeID()
	c.notify.Success("Login successful")
	c.nav.Navigate(Route{Screen: ScreenDashboard})
	c.state = TOTPDone
}
