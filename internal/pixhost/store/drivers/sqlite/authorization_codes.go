package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store/drivers/sqlite/gen"
)

type authorizationCodesRepo struct {
	q *gen.Queries
}

func (r *authorizationCodesRepo) CreateAuthorizationCode(ctx context.Context, c domain.AuthorizationCode) error {
	err := r.q.CreateAuthorizationCode(ctx, gen.CreateAuthorizationCodeParams{
		ID:                  c.ID,
		ClientID:            c.ClientID,
		UserID:              c.UserID,
		CodeHash:            c.CodeHash,
		RedirectUri:         c.RedirectURI,
		Scopes:              joinFields(c.Scopes),
		CodeChallenge:       c.CodeChallenge,
		CodeChallengeMethod: c.CodeChallengeMethod,
		ExpiresAt:           c.ExpiresAt.Unix(),
		CreatedAt:           c.CreatedAt.Unix(),
	})
	return mapConstraint(err)
}

func (r *authorizationCodesRepo) GetAuthorizationCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error) {
	row, err := r.q.GetAuthorizationCodeByHash(ctx, hash)
	if err != nil {
		return domain.AuthorizationCode{}, mapNotFound(err)
	}
	return mapAuthorizationCode(row), nil
}

func (r *authorizationCodesRepo) MarkAuthorizationCodeUsed(ctx context.Context, id string, at time.Time) error {
	return affected(r.q.MarkAuthorizationCodeUsed(ctx, gen.MarkAuthorizationCodeUsedParams{
		UsedAt: sql.NullInt64{Int64: at.Unix(), Valid: true},
		ID:     id,
	}))
}

func (r *authorizationCodesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteExpiredAuthorizationCodes(ctx, now.Unix())
}
