package http

import (
	"context"
	"net/http"
	"time"

	"github.com/tukcommunity/backend/internal/accounts/store"
	"github.com/tukcommunity/backend/pkg/authsdk"
	"github.com/tukcommunity/backend/pkg/httpx"
)

const healthProbeTimeout = 2 * time.Second

// HealthHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Reports service liveness and whether the database answers a trivial query.
//	@Description	Always returns 200; database problems are reported in the body.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, timestamp, database, service"
//	@Router			/health [get].
func HealthHandler(st store.Store, service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
		defer cancel()

		database := "connected"
		if err := st.Ping(ctx); err != nil {
			database = "disconnected: " + err.Error()
		}

		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().Format(time.RFC3339),
			Database:  database,
			Service:   service,
		})
	}
}
