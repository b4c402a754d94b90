package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store/drivers/sqlite/gen"
)

type tokensRepo struct {
	q *gen.Queries
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.Token) error {
	err := r.q.CreateToken(ctx, gen.CreateTokenParams{
		ID:               t.ID,
		ClientID:         t.ClientID,
		UserID:           t.UserID,
		Scopes:           joinFields(t.Scopes),
		AccessTokenHash:  t.AccessTokenHash,
		RefreshTokenHash: mapStringNull(t.RefreshTokenHash),
		IssuedAt:         t.IssuedAt.Unix(),
		ExpiresIn:        int64(t.ExpiresIn / time.Second),
		AccessRevoked:    t.AccessRevoked,
		RefreshRevoked:   t.RefreshRevoked,
	})
	return mapConstraint(err)
}

func (r *tokensRepo) GetTokenByAccessHash(ctx context.Context, hash string) (domain.Token, error) {
	row, err := r.q.GetTokenByAccessHash(ctx, hash)
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	return mapToken(row), nil
}

func (r *tokensRepo) GetTokenByRefreshHash(ctx context.Context, hash string) (domain.Token, error) {
	row, err := r.q.GetTokenByRefreshHash(ctx, mapStringNull(hash))
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	return mapToken(row), nil
}

func (r *tokensRepo) RevokeAccessToken(ctx context.Context, id string) error {
	return affected(r.q.RevokeAccessToken(ctx, id))
}

func (r *tokensRepo) RevokeRefreshToken(ctx context.Context, id string) error {
	return affected(r.q.RevokeRefreshToken(ctx, id))
}

func (r *tokensRepo) DeleteTokensBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.q.DeleteTokensBefore(ctx, cutoff.Unix())
}
