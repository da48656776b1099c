package authsdk

import (
	"context"
	"net/http"
)

// Health reports the service status and database connectivity. The server
// answers 200 even when the database is down; inspect Database.
func (c *SDKClient) Health(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, PathHealth, nil, "")
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}

	return &health, nil
}
