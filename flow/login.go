package flow

import (
	"context"
	"sync/atomic"

	"github.com/dath-251-thuanle/secureshare/client"
	"github.com/dath-251-thuanle/secureshare/session"
)

// LoginController orchestrates email/password submission and routes the user
// to the dashboard or the TOTP challenge screen depending on the outcome.
type LoginController struct {
	api     *client.Client
	session *session.Session
	nav     Navigator
	notify  Notifier

	submitting atomic.Bool
}

func NewLoginController(api *client.Client, sess *session.Session, nav Navigator, notify Notifier) *LoginController {
	return &LoginController{api: api, session: sess, nav: nav, notify: notify}
}

// Submitting reports whether a login request is in flight.
func (c *LoginController) Submitting() bool {
	return c.submitting.Load()
}

// Submit performs one login attempt. On failure the controller notifies and
// returns without navigating; the caller may resubmit. No automatic retry.
func (c *LoginController) Submit(ctx context.Context, email, password string) {
	if !c.submitting.CompareAndSwap(false, true) {
		return
	}
	defer c.submitting.Store(false)

	res, err := c.api.Login(ctx, email, password)
	if err != nil {
		c.notify.Error(client.ErrorMessage(err, "Login failed"))
		return
	}
	switch res.Kind {
	case client.LoginSucceeded:
		c.session.SetAccessToken(res.AccessToken)
		if res.User != nil {
			c.session.SetCurrentUser(res.User)
		}
		// A challenge id left over from an abandoned attempt would shadow the
		// fresh session.
		c.session.ClearLoginChallengeID()
		c.notify.Success("Login successful")
		c.nav.Navigate(Route{Screen: ScreenDashboard})
	case client.LoginTOTPRequired:
		// Persist before navigating so the TOTP screen finds the challenge
		// on mount.
		c.session.SetLoginChallengeID(res.ChallengeID)
		c.nav.Navigate(Route{Screen: ScreenTOTP, Email: email})
	}
}
