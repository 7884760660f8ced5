package flow

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dath-251-thuanle/secureshare/client"
)

// PolicyController edits the system policy. The form mirrors every policy
// field; a successful save replaces it wholesale with the canonical policy
// the server returns, while a failed save keeps the user's edits.
type PolicyController struct {
	api    *client.Client
	notify Notifier

	form   client.SystemPolicy
	loaded bool
	saving atomic.Bool
}

func NewPolicyController(api *client.Client, notify Notifier) *PolicyController {
	return &PolicyController{api: api, notify: notify}
}

// Form returns the editable policy form. Valid only after a successful Load.
func (c *PolicyController) Form() *client.SystemPolicy { return &c.form }

func (c *PolicyController) Loaded() bool { return c.loaded }

func (c *PolicyController) Load(ctx context.Context) error {
	policy, err := c.api.Policy(ctx)
	if err != nil {
		c.notify.Error(client.ErrorMessage(err, "Failed to load policy"))
		return err
	}
	c.form = *policy
	c.loaded = true
	return nil
}

// Save submits the current form as a partial update.
func (c *PolicyController) Save(ctx context.Context) {
	if !c.saving.CompareAndSwap(false, true) {
		return
	}
	defer c.saving.Store(false)

	update := client.SystemPolicyUpdate{
		MaxFileSizeMB:            &c.form.MaxFileSizeMB,
		MinValidityHours:         &c.form.MinValidityHours,
		MaxValidityDays:          &c.form.MaxValidityDays,
		DefaultValidityDays:      &c.form.DefaultValidityDays,
		RequirePasswordMinLength: &c.form.RequirePasswordMinLength,
	}
	policy, err := c.api.UpdatePolicy(ctx, update)
	if err != nil {
		c.notify.Error(client.ErrorMessage(err, "Failed to update policy"))
		return
	}
	c.form = *policy
	c.notify.Success("Policy updated")
}

// CleanupController triggers the manual expired-file purge. Fire and forget:
// no confirmation, no undo, just a guard against a second trigger while one
// is in flight.
type CleanupController struct {
	api    *client.Client
	notify Notifier

	running atomic.Bool
}

func NewCleanupController(api *client.Client, notify Notifier) *CleanupController {
	return &CleanupController{api: api, notify: notify}
}

// Running reports whether a cleanup request is in flight.
func (c *CleanupController) Running() bool { return c.running.Load() }

func (c *CleanupController) Run(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	defer c.running.Store(false)

	res, err := c.api.Cleanup(ctx)
	if err != nil {
		c.notify.Error("Cleanup failed")
		return
	}
	c.notify.Success(fmt.Sprintf("Removed %d expired files at %s", res.DeletedFiles, res.Timestamp))
}
