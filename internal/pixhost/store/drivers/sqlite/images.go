package sqlite

import (
	"context"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store/drivers/sqlite/gen"
)

type imagesRepo struct {
	q *gen.Queries
}

func (r *imagesRepo) CreateImage(ctx context.Context, img domain.Image) (int64, error) {
	id, err := r.q.CreateImage(ctx, gen.CreateImageParams{
		Guid:        img.GUID,
		Title:       img.Title,
		ContentType: img.ContentType,
		Size:        img.Size,
		UserID:      img.UserID,
		CreatedAt:   img.CreatedAt.Unix(),
	})
	if err != nil {
		return 0, mapConstraint(err)
	}
	return id, nil
}

func (r *imagesRepo) GetImage(ctx context.Context, id int64) (domain.Image, error) {
	row, err := r.q.GetImage(ctx, id)
	if err != nil {
		return domain.Image{}, mapNotFound(err)
	}
	return mapImage(row), nil
}

func (r *imagesRepo) ListImagesByUser(ctx context.Context, userID int64) ([]domain.Image, error) {
	rows, err := r.q.ListImagesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	images := make([]domain.Image, 0, len(rows))
	for _, row := range rows {
		images = append(images, mapImage(row))
	}
	return images, nil
}

func (r *imagesRepo) DeleteImage(ctx context.Context, id int64) error {
	return affected(r.q.DeleteImage(ctx, id))
}
