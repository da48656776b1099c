package http

import (
	"errors"
	"net/http"

	"github.com/tukcommunity/backend/internal/accounts/service"
	"github.com/tukcommunity/backend/pkg/authsdk"
	"github.com/tukcommunity/backend/pkg/httpx"
	"github.com/tukcommunity/backend/pkg/slogx"
)

const (
	logoutMessage     = "로그아웃이 성공적으로 완료되었습니다."
	msgInvalidRefresh = "유효하지 않은 토큰입니다."
)

// LogoutHandler blacklists the caller's refresh token. Logging out twice, or
// with a token that already expired, still succeeds.
type LogoutHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Log out
//	@Description	Blacklists the given refresh token so it can no longer be refreshed.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LogoutRequest	true	"Refresh token to revoke"
//	@Success		200		{object}	authsdk.MessageResponse	"Logged out"
//	@Failure		400		{object}	map[string][]string		"Refresh token malformed"
//	@Failure		401		{object}	authsdk.APIError		"Missing or invalid access token"
//	@Security		BearerAuth
//	@Router			/api/accounts/logout/ [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LogoutRequest
	if !decodeOrEmpty(w, r, &req) {
		return
	}

	if err := h.TokenService.Revoke(ctx, req.Refresh); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			log.Info("logout with an invalid refresh token", "error", err)
			authsdk.ValidationErrors{"refresh": {msgInvalidRefresh}}.WriteError(w)
			return
		}
		log.Error("logout failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: logoutMessage})
}
