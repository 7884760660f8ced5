package flow

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dath-251-thuanle/secureshare/client"
	"github.com/dath-251-thuanle/secureshare/session"
)

// DashboardController loads the authenticated user's profile and file
// summary, and hosts the disable-2FA sub-action.
type DashboardController struct {
	api     *client.Client
	session *session.Session
	nav     Navigator
	notify  Notifier

	profile    *client.UserProfile
	loadErr    string
	submitting atomic.Bool
}

func NewDashboardController(api *client.Client, sess *session.Session, nav Navigator, notify Notifier) *DashboardController {
	return &DashboardController{api: api, session: sess, nav: nav, notify: notify}
}

// Profile returns the loaded profile, or nil before a successful Load.
func (c *DashboardController) Profile() *client.UserProfile { return c.profile }

// Err returns the inline error shown when loading failed for a reason other
// than an expired session.
func (c *DashboardController) Err() string { return c.loadErr }

// Load fetches the profile. An authorization failure redirects to login
// silently; an expired session is not an error worth a notification. Any
// other failure becomes an inline error without a redirect.
func (c *DashboardController) Load(ctx context.Context) {
	profile, err := c.api.Profile(ctx)
	if err != nil {
		if client.IsUnauthorized(err) {
			c.nav.Navigate(Route{Screen: ScreenLogin})
			return
		}
		c.loadErr = "Failed to fetch user profile."
		return
	}
	c.profile = profile
	c.loadErr = ""
}

// DisableTwoFactor turns 2FA off using a currently valid code, then re-fetches
// the profile so the rendered state is the server's, not an optimistic guess.
func (c *DashboardController) DisableTwoFactor(ctx context.Context, code string) {
	if code == "" {
		c.notify.Error("Please enter the TOTP code.")
		return
	}
	if !c.submitting.CompareAndSwap(false, true) {
		return
	}
	defer c.submitting.Store(false)

	if err := c.api.DisableTOTP(ctx, code); err != nil {
		c.notify.Error(fmt.Sprintf("Failed to disable TOTP: %s", client.ErrorMessage(err, "unknown error")))
		return
	}
	c.Load(ctx)
	c.notify.Success("TOTP has been disabled successfully.")
}
