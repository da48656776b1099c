package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tukcommunity/backend/internal/accounts/domain"
	"github.com/tukcommunity/backend/internal/accounts/store"
)

// Table names follow the blacklist app the Django deployment installed, so
// tokens issued before the cut-over stay revocable.
const (
	outstandingTable = "token_blacklist_outstandingtoken"
	blacklistedTable = "token_blacklist_blacklistedtoken"
)

type tokensRepo struct {
	q       sqlx.ExtContext
	dialect Dialect
}

func (r *tokensRepo) CreateOutstandingToken(ctx context.Context, t domain.OutstandingToken) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO `+outstandingTable+` (user_id, jti, token, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.UserID,
		t.JTI,
		t.Token,
		dbTime(t.CreatedAt),
		dbTime(t.ExpiresAt),
	)
	if err != nil {
		if column, ok := r.dialect.UniqueViolation(err); ok {
			return 0, fmt.Errorf("%w: %s", store.ErrAlreadyExists, column)
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r *tokensRepo) GetOutstandingTokenByJTI(ctx context.Context, jti string) (domain.OutstandingToken, error) {
	var t domain.OutstandingToken
	err := sqlx.GetContext(ctx, r.q, &t,
		`SELECT id, user_id, jti, token, created_at, expires_at
		FROM `+outstandingTable+` WHERE jti = ?`, jti)
	if err != nil {
		return domain.OutstandingToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *tokensRepo) BlacklistToken(ctx context.Context, tokenID int64, at time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO `+blacklistedTable+` (token_id, blacklisted_at) VALUES (?, ?)`,
		tokenID, dbTime(at))
	if err != nil {
		if _, ok := r.dialect.UniqueViolation(err); ok {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *tokensRepo) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var n int64
	err := sqlx.GetContext(ctx, r.q, &n,
		`SELECT COUNT(*) FROM `+blacklistedTable+` b
		JOIN `+outstandingTable+` o ON o.id = b.token_id
		WHERE o.jti = ?`, jti)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *tokensRepo) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	cutoff := dbTime(now)

	// Blacklist rows first; not every connection enforces ON DELETE CASCADE.
	if _, err := r.q.ExecContext(ctx,
		`DELETE FROM `+blacklistedTable+` WHERE token_id IN (
			SELECT id FROM `+outstandingTable+` WHERE expires_at < ?)`, cutoff); err != nil {
		return 0, err
	}

	res, err := r.q.ExecContext(ctx,
		`DELETE FROM `+outstandingTable+` WHERE expires_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
