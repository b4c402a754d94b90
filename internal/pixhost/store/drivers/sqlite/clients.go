package sqlite

import (
	"context"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store/drivers/sqlite/gen"
)

type clientsRepo struct {
	q *gen.Queries
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	err := r.q.CreateClient(ctx, gen.CreateClientParams{
		ID:                      c.ID,
		SecretHash:              mapStringNull(c.SecretHash),
		UserID:                  c.UserID,
		Name:                    c.Name,
		Uri:                     c.URI,
		GrantTypes:              joinFields(c.GrantTypes),
		RedirectUris:            joinFields(c.RedirectURIs),
		ResponseTypes:           joinFields(c.ResponseTypes),
		Scopes:                  joinFields(c.Scopes),
		TokenEndpointAuthMethod: c.TokenEndpointAuthMethod,
		IssuedAt:                c.IssuedAt.Unix(),
	})
	return mapConstraint(err)
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row, err := r.q.GetClientByID(ctx, id)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return mapClient(row), nil
}

func (r *clientsRepo) ListClientsByUser(ctx context.Context, userID int64) ([]domain.Client, error) {
	rows, err := r.q.ListClientsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	clients := make([]domain.Client, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, mapClient(row))
	}
	return clients, nil
}
