package http

import (
	"errors"
	"net/http"

	"github.com/tukcommunity/backend/internal/accounts/service"
	"github.com/tukcommunity/backend/pkg/authsdk"
	"github.com/tukcommunity/backend/pkg/httpx"
	"github.com/tukcommunity/backend/pkg/slogx"
)

// LoginHandler serves POST /api/accounts/login/.
type LoginHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Log in
//	@Description	Exchanges email and password for an access and refresh token.
//	@Description	Unknown emails and wrong passwords produce the same 401 response.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest		true	"Credentials"
//	@Success		200		{object}	authsdk.TokenPairResponse	"Token pair"
//	@Failure		400		{object}	map[string][]string			"Missing fields"
//	@Failure		401		{object}	authsdk.APIError			"No active account with these credentials"
//	@Header			200		{string}	Cache-Control				"no-store"
//	@Router			/api/accounts/login/ [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if !decodeOrEmpty(w, r, &req) {
		return
	}

	verrs := authsdk.ValidationErrors{}
	if req.Email == "" {
		verrs["email"] = []string{service.MsgRequired}
	}
	if req.Password == "" {
		verrs["password"] = []string{service.MsgRequired}
	}
	if len(verrs) > 0 {
		verrs.WriteError(w)
		return
	}

	pair, err := h.TokenService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			authsdk.ErrNoActiveAccount.WriteError(w)
			return
		}
		log.Error("login failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenPairResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
	})
}

// RefreshHandler serves POST /api/accounts/token/refresh/.
type RefreshHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Refresh the access token
//	@Description	Returns a new access token for a valid, unrevoked refresh token.
//	@Description	When rotation is enabled a new refresh token is returned too and the old one is blacklisted.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.RefreshResponse	"New access token"
//	@Failure		400		{object}	map[string][]string		"Missing refresh field"
//	@Failure		401		{object}	authsdk.APIError		"Token not valid"
//	@Router			/api/accounts/token/refresh/ [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RefreshRequest
	if !decodeOrEmpty(w, r, &req) {
		return
	}
	if req.Refresh == "" {
		authsdk.ValidationErrors{"refresh": {service.MsgRequired}}.WriteError(w)
		return
	}

	pair, err := h.TokenService.Refresh(ctx, req.Refresh)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			log.Info("refresh rejected", "error", err)
			authsdk.ErrTokenNotValid.WriteError(w)
			return
		}
		log.Error("refresh failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.RefreshResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
	})
}

// decodeOrEmpty decodes the JSON body into dst, treating a missing body as
// an empty object. It writes the parse error and returns false otherwise.
func decodeOrEmpty(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := httpx.DecodeJSON(r, dst)
	if err == nil || errors.Is(err, httpx.ErrEmptyBody) {
		return true
	}
	slogx.FromContext(r.Context()).Debug("invalid request body", "error", err)
	authsdk.ErrParse.WriteError(w)
	return false
}
