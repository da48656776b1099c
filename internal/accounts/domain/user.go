package domain

import (
	"strings"
	"time"

	"github.com/tukcommunity/backend/pkg/cryptox"
)

type User struct {
	ID           int64      `db:"user_id"`
	RoleID       int64      `db:"role_id"`     // Foreign key to Role, ON DELETE RESTRICT
	PasswordHash string     `db:"password"`    // argon2id, or pbkdf2_sha256 from older rows
	LastLogin    *time.Time `db:"last_login"`  // nil until the first login
	Email        string     `db:"email"`       // unique
	StudentNum   int64      `db:"student_num"` // unique
	Department   string     `db:"department"`
	Nickname     *string    `db:"nickname"`
	CreatedAt    time.Time  `db:"create_at"`
	UpdatedAt    time.Time  `db:"update_at"`
}

// NicknameOrEmpty returns the nickname, or "" for users that never set one.
func (u User) NicknameOrEmpty() string {
	if u.Nickname == nil {
		return ""
	}
	return *u.Nickname
}

// CheckPassword verifies raw against the user's stored hash.
func CheckPassword(u User, raw string) error {
	return cryptox.VerifyPassword(raw, u.PasswordHash)
}

// NormalizeEmail lowercases the domain part of an email address and trims
// surrounding whitespace. The local part is left alone since some mail
// servers treat it case sensitively.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
