package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/tukcommunity/backend/internal/accounts/domain"
	"github.com/tukcommunity/backend/internal/accounts/store"
	"github.com/tukcommunity/backend/pkg/cryptox"
	"github.com/tukcommunity/backend/pkg/slogx"
)

var ErrAdminRoleMissing = errors.New("administrator role (authority 1) is missing")

// SuperuserInput describes the administrator account to create. An empty
// Password makes CreateSuperuser generate one.
type SuperuserInput struct {
	Email      string
	Password   string
	StudentNum int64
	Department string
	Nickname   string
}

// SuperuserService creates administrator accounts from the command line.
// It bypasses the signup password policy but not uniqueness.
type SuperuserService struct {
	Store store.Store
}

// CreateSuperuser creates an administrator and returns it together with the
// password that was set, which is the generated one when none was given.
func (s *SuperuserService) CreateSuperuser(ctx context.Context, in SuperuserInput) (domain.User, string, error) {
	l := slogx.FromContext(ctx)

	verrs := ValidationError{}
	in.Email = domain.NormalizeEmail(in.Email)
	if in.Email == "" {
		verrs.add("email", MsgRequired)
	} else if err := validate.Var(in.Email, "email"); err != nil {
		verrs.add("email", MsgInvalidEmail)
	}
	if in.Department == "" {
		verrs.add("department", MsgRequired)
	}
	if _, msg := parseStudentNum(strconv.FormatInt(in.StudentNum, 10)); msg != "" {
		verrs.add("student_num", msg)
	}
	if len(verrs) > 0 {
		return domain.User{}, "", verrs
	}

	if in.Nickname == "" {
		in.Nickname = "Admin"
	}

	password := in.Password
	if password == "" {
		var err error
		if password, err = cryptox.GeneratePassword(); err != nil {
			return domain.User{}, "", err
		}
	}
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, "", err
	}

	nickname := in.Nickname
	u := domain.User{
		PasswordHash: hash,
		Email:        in.Email,
		StudentNum:   in.StudentNum,
		Department:   in.Department,
		Nickname:     &nickname,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		role, err := tx.Roles().GetRoleByAuthority(ctx, domain.AuthorityAdmin)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrAdminRoleMissing
			}
			return err
		}
		u.RoleID = role.ID

		now := time.Now()
		u.CreatedAt, u.UpdatedAt = now, now
		u.ID, err = tx.Users().CreateUser(ctx, u)
		return err
	})
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		return domain.User{}, "", ValidationError{"email": {MsgEmailExists}}
	case errors.Is(err, store.ErrDuplicateStudentNum):
		return domain.User{}, "", ValidationError{"student_num": {MsgStudentNumExists}}
	case err != nil:
		return domain.User{}, "", err
	}

	l.Info("created superuser",
		slog.Int64("user_id", u.ID),
		slog.Int64("role_id", u.RoleID),
	)
	return u, password, nil
}
