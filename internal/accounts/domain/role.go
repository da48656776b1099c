package domain

import "time"

// Role authorities. The Role table is seeded by the database administrator;
// the application never creates roles at runtime.
const (
	AuthorityUser  = 0
	AuthorityAdmin = 1
)

// PermViewRole guards the role listing.
const PermViewRole = "accounts.view_role"

type Role struct {
	ID        int64     `db:"role_id"`
	Authority int       `db:"authority"`
	CreatedAt time.Time `db:"create_at"`
}

// IsAdmin reports whether the role grants administrator access.
func IsAdmin(r Role) bool {
	return r.Authority == AuthorityAdmin
}

// HasPerm reports whether the role holds perm. Administrators hold every
// permission and nobody else holds any.
func HasPerm(r Role, perm string) bool {
	return IsAdmin(r)
}
