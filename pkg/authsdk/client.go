package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Endpoint paths served by the TukCommunity API.
const (
	PathHealth  = "/health"
	PathSignup  = "/api/accounts/signup/"
	PathLogin   = "/api/accounts/login/"
	PathRefresh = "/api/accounts/token/refresh/"
	PathLogout  = "/api/accounts/logout/"
	PathRoles   = "/api/accounts/roles/"
)

// SDKClient is a client for the TukCommunity accounts API.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new accounts API client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// AuthenticateWithPassword logs in and wraps the token pair in a Session.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, email, password string) (*Session, error) {
	pair, err := c.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return c.NewSessionFromTokens(pair.Access, pair.Refresh), nil
}

// NewSessionFromTokens creates an authenticated session from existing tokens,
// e.g. ones persisted by a previous run. The session refreshes the access
// token when it is about to expire.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string) *Session {
	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    tokenExpiry(accessToken),
	}
}
