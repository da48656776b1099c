package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tukcommunity/backend/internal/accounts/domain"
	"github.com/tukcommunity/backend/internal/accounts/store"
)

const userTable = "`User`"

const userColumns = `user_id, role_id, password, last_login, email, student_num,
	department, nickname, create_at, update_at`

type usersRepo struct {
	q       sqlx.ExtContext
	dialect Dialect
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.q, &u,
		`SELECT `+userColumns+` FROM `+userTable+` WHERE user_id = ?`, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.q, &u,
		`SELECT `+userColumns+` FROM `+userTable+` WHERE email = ?`, email)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT COUNT(*) FROM `+userTable+` WHERE email = ?`, email)
}

func (r *usersRepo) StudentNumExists(ctx context.Context, studentNum int64) (bool, error) {
	return r.exists(ctx, `SELECT COUNT(*) FROM `+userTable+` WHERE student_num = ?`, studentNum)
}

func (r *usersRepo) exists(ctx context.Context, query string, arg any) (bool, error) {
	var n int64
	if err := sqlx.GetContext(ctx, r.q, &n, query, arg); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO `+userTable+` (role_id, password, last_login, email, student_num,
			department, nickname, create_at, update_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.RoleID,
		u.PasswordHash,
		optionalTime(u.LastLogin),
		u.Email,
		u.StudentNum,
		u.Department,
		u.Nickname,
		dbTime(u.CreatedAt),
		dbTime(u.UpdatedAt),
	)
	if err != nil {
		return 0, r.mapUnique(err)
	}
	return res.LastInsertId()
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return updateUser(ctx, r.q,
		`UPDATE `+userTable+` SET last_login = ? WHERE user_id = ?`, dbTime(at), userID)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID int64, hash string, at time.Time) error {
	return updateUser(ctx, r.q,
		`UPDATE `+userTable+` SET password = ?, update_at = ? WHERE user_id = ?`, hash, dbTime(at), userID)
}

func (r *usersRepo) mapUnique(err error) error {
	key, ok := r.dialect.UniqueViolation(err)
	if !ok {
		return err
	}
	switch uniqueField(key) {
	case "email":
		return store.ErrDuplicateEmail
	case "student_num":
		return store.ErrDuplicateStudentNum
	default:
		return fmt.Errorf("%w: %s", store.ErrAlreadyExists, key)
	}
}

// uniqueField maps a violated column or index name to the User field it
// guards. Index names on the existing schema are not ours to choose, so
// "uq_user_email" or "User_studentNum_key" resolve as well as the bare
// column names.
func uniqueField(key string) string {
	k := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(key))
	switch {
	case strings.Contains(k, "studentnum"):
		return "student_num"
	case strings.Contains(k, "email"):
		return "email"
	default:
		return ""
	}
}

// updateUser runs an UPDATE against a single user. MySQL connections are
// opened with clientFoundRows so matched rows count even when unchanged.
func updateUser(ctx context.Context, q sqlx.ExecerContext, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func optionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return dbTime(*t)
}
