package authsdk

import (
	"context"
	"net/http"
)

// Signup registers a new account.
// Field problems come back as ValidationErrors.
func (c *SDKClient) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, PathSignup, req, "")
	if err != nil {
		return nil, err
	}

	var out SignupResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for an access and refresh token.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*TokenPairResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, PathLogin, LoginRequest{Email: email, Password: password}, "")
	if err != nil {
		return nil, err
	}

	var out TokenPairResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh obtains a new access token from a refresh token.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, PathRefresh, RefreshRequest{Refresh: refreshToken}, "")
	if err != nil {
		return nil, err
	}

	var out RefreshResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout blacklists refreshToken. The call is authenticated with accessToken.
func (c *SDKClient) Logout(ctx context.Context, accessToken, refreshToken string) (*MessageResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, PathLogout, LogoutRequest{Refresh: refreshToken}, accessToken)
	if err != nil {
		return nil, err
	}

	var out MessageResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRoles lists all roles. Requires an administrator access token.
func (c *SDKClient) ListRoles(ctx context.Context, accessToken string) (*ListRolesResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, PathRoles, nil, accessToken)
	if err != nil {
		return nil, err
	}

	var out ListRolesResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
