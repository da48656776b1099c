package http

import (
	"net/http"

	"github.com/tukcommunity/backend/internal/accounts/service"
	"github.com/tukcommunity/backend/pkg/authsdk"
	"github.com/tukcommunity/backend/pkg/httpx"
	"github.com/tukcommunity/backend/pkg/slogx"
)

type RolesHandler struct {
	RolesService *service.RolesService
}

// ServeHTTP handles the list roles endpoint
//
//	@Summary		List all roles
//	@Description	Returns every row of the Role table. Requires an administrator access token.
//	@Tags			Roles
//	@Produce		json
//	@Success		200	{object}	authsdk.ListRolesResponse	"List of roles"
//	@Failure		401	{object}	authsdk.APIError			"Unauthorized - missing or invalid token"
//	@Failure		403	{object}	authsdk.APIError			"Forbidden - not an administrator"
//	@Failure		500	{object}	authsdk.APIError			"Internal server error"
//	@Security		BearerAuth
//	@Router			/api/accounts/roles/ [get].
func (h *RolesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	roles, err := h.RolesService.ListAll(ctx)
	if err != nil {
		log.Error("failed to list roles", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	response := authsdk.ListRolesResponse{
		Roles: make([]authsdk.RoleInfo, len(roles)),
	}

	for i, role := range roles {
		response.Roles[i] = authsdk.RoleInfo{
			RoleID:    role.ID,
			Authority: role.Authority,
			CreatedAt: role.CreatedAt,
		}
	}

	httpx.WriteJSON(w, http.StatusOK, response)
}
