package client

import (
	"context"
	"net/http"
)

// Policy fetches the current system policy.
func (c *Client) Policy(ctx context.Context) (*SystemPolicy, error) {
	var res SystemPolicy
	if err := c.do(ctx, http.MethodGet, "/admin/policy", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdatePolicy applies a partial policy update and returns the server's
// canonical policy, which callers must adopt in place of their submitted
// diff.
func (c *Client) UpdatePolicy(ctx context.Context, update SystemPolicyUpdate) (*SystemPolicy, error) {
	var res struct {
		Message string       `json:"message"`
		Policy  SystemPolicy `json:"policy"`
	}
	if err := c.do(ctx, http.MethodPatch, "/admin/policy", update, &res); err != nil {
		return nil, err
	}
	return &res.Policy, nil
}

// Cleanup triggers an immediate purge of expired files.
func (c *Client) Cleanup(ctx context.Context) (*CleanupResponse, error) {
	var res CleanupResponse
	if err := c.do(ctx, http.MethodPost, "/admin/cleanup", struct{}{}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
