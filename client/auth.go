package client

import (
	"context"
	"errors"
	"net/http"
)

// Login exchanges email and password for either an access token or a TOTP
// challenge. The response shape is discriminated here, at the boundary: a
// present access token wins, then a present challenge id; a 2xx response
// carrying neither is an error.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	switch {
	case res.AccessToken != "":
		return &LoginResult{Kind: LoginSucceeded, AccessToken: res.AccessToken, User: res.User}, nil
	case res.CID != "":
		return &LoginResult{Kind: LoginTOTPRequired, ChallengeID: res.CID}, nil
	default:
		return nil, errors.New("login response carried neither an access token nor a challenge id")
	}
}

// LoginTOTP answers an outstanding login challenge with a TOTP code. A 2xx
// response without an access token yields Kind LoginOutcomeUnknown; the
// server contract should not produce it, but callers must not treat it as a
// login.
func (c *Client) LoginTOTP(ctx context.Context, cid, code string) (*LoginResult, error) {
	var res loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login/totp", totpLoginRequest{CID: cid, Code: code}, &res); err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return &LoginResult{Kind: LoginOutcomeUnknown}, nil
	}
	return &LoginResult{Kind: LoginSucceeded, AccessToken: res.AccessToken, User: res.User}, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, email, password string) (*RegisterResponse, error) {
	body := struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}{username, email, password}
	var res RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SetupTOTP asks the server to issue a pending TOTP secret for the
// authenticated user. The secret only becomes active once VerifyTOTP
// confirms a code derived from it.
func (c *Client) SetupTOTP(ctx context.Context) (*TOTPSetup, error) {
	var res struct {
		TOTPSetup TOTPSetup `json:"totpSetup"`
		Message   string    `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/totp/setup", struct{}{}, &res); err != nil {
		return nil, err
	}
	return &res.TOTPSetup, nil
}

// VerifyTOTP confirms 2FA enablement with a code from the pending secret.
func (c *Client) VerifyTOTP(ctx context.Context, code string) error {
	body := struct {
		Code string `json:"code"`
	}{code}
	return c.do(ctx, http.MethodPost, "/auth/totp/verify", body, nil)
}

// DisableTOTP turns 2FA off for the authenticated user; the server requires a
// currently valid code.
func (c *Client) DisableTOTP(ctx context.Context, code string) error {
	body := struct {
		Code string `json:"code"`
	}{code}
	return c.do(ctx, http.MethodPost, "/auth/totp/disable", body, nil)
}

// Logout invalidates the server-side token. The caller is responsible for
// clearing the local session afterwards.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", struct{}{}, nil)
}

// Profile fetches the authenticated user's record together with the file list
// and summary counts the dashboard renders.
func (c *Client) Profile(ctx context.Context) (*UserProfile, error) {
	var res UserProfile
	if err := c.do(ctx, http.MethodGet, "/user", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
