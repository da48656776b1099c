package service

import (
	"context"

	"github.com/tukcommunity/backend/internal/accounts/domain"
	"github.com/tukcommunity/backend/internal/accounts/store"
)

type RolesService struct {
	Store store.Store
}

// ListAll returns all roles in the system.
func (s *RolesService) ListAll(ctx context.Context) ([]domain.Role, error) {
	return s.Store.Roles().ListRoles(ctx)
}
