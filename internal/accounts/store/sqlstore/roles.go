package sqlstore

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/tukcommunity/backend/internal/accounts/domain"
)

type rolesRepo struct {
	q sqlx.QueryerContext
}

func (r *rolesRepo) GetRoleByID(ctx context.Context, id int64) (domain.Role, error) {
	var role domain.Role
	err := sqlx.GetContext(ctx, r.q, &role,
		"SELECT role_id, authority, create_at FROM `Role` WHERE role_id = ?", id)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) GetRoleByAuthority(ctx context.Context, authority int) (domain.Role, error) {
	var role domain.Role
	err := sqlx.GetContext(ctx, r.q, &role,
		"SELECT role_id, authority, create_at FROM `Role` WHERE authority = ? ORDER BY role_id LIMIT 1", authority)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles := []domain.Role{}
	err := sqlx.SelectContext(ctx, r.q, &roles,
		"SELECT role_id, authority, create_at FROM `Role` ORDER BY role_id")
	if err != nil {
		return nil, err
	}
	return roles, nil
}
