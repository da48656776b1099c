package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tukcommunity/backend/internal/accounts/domain"
	"github.com/tukcommunity/backend/internal/accounts/store"
	"github.com/tukcommunity/backend/pkg/cryptox"
	"github.com/tukcommunity/backend/pkg/slogx"
)

// DefaultPasswordMinLength applies when SignupService.PasswordMinLength is unset.
const DefaultPasswordMinLength = 8

// ErrDefaultRoleMissing means the Role table has no authority 0 row, i.e.
// the database was never seeded.
var ErrDefaultRoleMissing = errors.New("default role (authority 0) is missing")

// SignupInput is the registration payload. StudentNum holds the textual
// form of the number so that both JSON numbers and numeric strings can be
// accepted and reported on like any other field.
type SignupInput struct {
	Email      string  `json:"email" validate:"required,max=100,email"`
	Password   string  `json:"password" validate:"required,max=128"`
	StudentNum string  `json:"student_num" validate:"required"`
	Department string  `json:"department" validate:"required,max=50"`
	Nickname   *string `json:"nickname" validate:"omitempty,max=30"`
}

type SignupService struct {
	Store             store.Store
	PasswordMinLength int
	Now               func() time.Time
}

// Signup validates in, creates the user with the default role and returns
// the stored record. Field problems come back as a ValidationError with
// every failing field filled in; nothing is written in that case.
func (s *SignupService) Signup(ctx context.Context, in SignupInput) (domain.User, error) {
	l := slogx.FromContext(ctx)

	in.Email = domain.NormalizeEmail(in.Email)
	in.StudentNum = strings.TrimSpace(in.StudentNum)
	in.Department = strings.TrimSpace(in.Department)
	if in.Nickname != nil {
		nickname := strings.TrimSpace(*in.Nickname)
		in.Nickname = &nickname
		if nickname == "" {
			in.Nickname = nil
		}
	}

	verrs := ValidationError{}
	if err := collect(in, verrs); err != nil {
		return domain.User{}, err
	}

	var studentNum int64
	if !verrs.Has("student_num") {
		n, msg := parseStudentNum(in.StudentNum)
		if msg != "" {
			verrs.add("student_num", msg)
		}
		studentNum = n
	}
	if !verrs.Has("password") {
		for _, msg := range s.passwordProblems(in.Password) {
			verrs.add("password", msg)
		}
	}

	if !verrs.Has("email") {
		exists, err := s.Store.Users().EmailExists(ctx, in.Email)
		if err != nil {
			return domain.User{}, fmt.Errorf("check email: %w", err)
		}
		if exists {
			verrs.add("email", MsgEmailExists)
		}
	}
	if !verrs.Has("student_num") {
		exists, err := s.Store.Users().StudentNumExists(ctx, studentNum)
		if err != nil {
			return domain.User{}, fmt.Errorf("check student number: %w", err)
		}
		if exists {
			verrs.add("student_num", MsgStudentNumExists)
		}
	}

	if len(verrs) > 0 {
		return domain.User{}, verrs
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		l.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	now := s.now()
	u := domain.User{
		PasswordHash: hash,
		Email:        in.Email,
		StudentNum:   studentNum,
		Department:   in.Department,
		Nickname:     in.Nickname,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		role, err := tx.Roles().GetRoleByAuthority(ctx, domain.AuthorityUser)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrDefaultRoleMissing
			}
			return err
		}
		u.RoleID = role.ID

		u.ID, err = tx.Users().CreateUser(ctx, u)
		return err
	})
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		return domain.User{}, ValidationError{"email": {MsgEmailExists}}
	case errors.Is(err, store.ErrDuplicateStudentNum):
		return domain.User{}, ValidationError{"student_num": {MsgStudentNumExists}}
	case errors.Is(err, ErrDefaultRoleMissing):
		l.Error("signup impossible, Role table is not seeded")
		return domain.User{}, err
	case err != nil:
		l.Error("failed to create user", slog.Any("error", err))
		return domain.User{}, err
	}

	l.Info("user registered", slog.Int64("user_id", u.ID))
	return u, nil
}

func (s *SignupService) passwordProblems(password string) []string {
	minLen := s.PasswordMinLength
	if minLen <= 0 {
		minLen = DefaultPasswordMinLength
	}

	var out []string
	if len([]rune(password)) < minLen {
		out = append(out, fmt.Sprintf(msgPasswordShortFormat, minLen))
	}
	if isAllDigits(password) {
		out = append(out, MsgPasswordNumeric)
	}
	return out
}

func (s *SignupService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// parseStudentNum returns the parsed number, or a field message when raw is
// not an integer within the column's range.
func parseStudentNum(raw string) (int64, string) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			if strings.HasPrefix(raw, "-") {
				return 0, fmt.Sprintf(msgMinValueFormat, 0)
			}
			return 0, fmt.Sprintf(msgMaxValueFormat, math.MaxInt32)
		}
		return 0, MsgInvalidInteger
	}
	switch {
	case n < 0:
		return 0, fmt.Sprintf(msgMinValueFormat, 0)
	case n > math.MaxInt32:
		return 0, fmt.Sprintf(msgMaxValueFormat, math.MaxInt32)
	}
	return n, ""
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
