package blacklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tukcommunity/backend/internal/accounts/domain"
	"github.com/tukcommunity/backend/internal/accounts/store"
)

// SQL keeps the blacklist in the token_blacklist tables of the main database.
type SQL struct {
	Store store.Store
	Now   func() time.Time
}

func NewSQL(st store.Store) *SQL {
	return &SQL{Store: st, Now: time.Now}
}

func (b *SQL) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return b.Store.Tokens().IsBlacklisted(ctx, jti)
}

// Revoke finds or creates the outstanding token row and blacklists it in one
// transaction. Tokens issued before outstanding rows were recorded are
// still revocable this way.
func (b *SQL) Revoke(ctx context.Context, req RevokeRequest) error {
	now := b.Now()

	return b.Store.WithTx(ctx, func(tx store.Tx) error {
		tok, err := tx.Tokens().GetOutstandingTokenByJTI(ctx, req.JTI)
		switch {
		case errors.Is(err, store.ErrNotFound):
			userID := req.UserID
			tok = domain.OutstandingToken{
				UserID:    &userID,
				JTI:       req.JTI,
				Token:     req.Token,
				CreatedAt: now,
				ExpiresAt: req.ExpiresAt,
			}
			if tok.ID, err = tx.Tokens().CreateOutstandingToken(ctx, tok); err != nil {
				return fmt.Errorf("record outstanding token: %w", err)
			}
		case err != nil:
			return fmt.Errorf("get outstanding token: %w", err)
		}

		err = tx.Tokens().BlacklistToken(ctx, tok.ID, now)
		if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return fmt.Errorf("blacklist token: %w", err)
		}
		return nil
	})
}
