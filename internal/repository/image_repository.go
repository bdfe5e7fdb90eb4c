package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"animepin/internal/models"
)

var ErrImageNotFound = errors.New("image not found")

// ImageFilter narrows a gallery query. Zero values mean no restriction.
type ImageFilter struct {
	TitleContains string
	Category      models.Category
}

type ImageRepository struct {
	pool *pgxpool.Pool
}

func NewImageRepository(pool *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

func (r *ImageRepository) Insert(ctx context.Context, image models.ImageRecord) (models.ImageRecord, error) {
	const query = `
		INSERT INTO anime_images (id, title, url, storage_path, category, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		RETURNING id, created_at
	`

	row := r.pool.QueryRow(ctx, query,
		image.ID,
		image.Title,
		image.URL,
		image.StoragePath,
		string(image.Category),
		image.OwnerID,
		image.CreatedAt,
	)
	if err := row.Scan(&image.ID, &image.CreatedAt); err != nil {
		return models.ImageRecord{}, err
	}
	return image, nil
}

func (r *ImageRepository) GetByID(ctx context.Context, id string) (models.ImageRecord, error) {
	const query = `
		SELECT id, title, url, storage_path, COALESCE(category, ''), COALESCE(user_id, ''), created_at
		FROM anime_images WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	var image models.ImageRecord
	var category string
	if err := row.Scan(
		&image.ID,
		&image.Title,
		&image.URL,
		&image.StoragePath,
		&category,
		&image.OwnerID,
		&image.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ImageRecord{}, ErrImageNotFound
		}
		return models.ImageRecord{}, err
	}
	image.Category = models.Category(category)
	return image, nil
}

func (r *ImageRepository) DeleteByID(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM anime_images WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

// Query returns records newest first, optionally restricted to titles
// containing the search term (case-insensitive) and an exact category.
func (r *ImageRepository) Query(ctx context.Context, filter ImageFilter) ([]models.ImageRecord, error) {
	query := `
		SELECT id, title, url, storage_path, COALESCE(category, ''), COALESCE(user_id, ''), created_at
		FROM anime_images
	`
	var (
		clauses []string
		args    []any
	)
	if filter.TitleContains != "" {
		args = append(args, "%"+filter.TitleContains+"%")
		clauses = append(clauses, "title ILIKE $1")
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		if len(args) == 2 {
			clauses = append(clauses, "category = $2")
		} else {
			clauses = append(clauses, "category = $1")
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.ImageRecord
	for rows.Next() {
		var image models.ImageRecord
		var category string
		if err := rows.Scan(
			&image.ID,
			&image.Title,
			&image.URL,
			&image.StoragePath,
			&category,
			&image.OwnerID,
			&image.CreatedAt,
		); err != nil {
			return nil, err
		}
		image.Category = models.Category(category)
		images = append(images, image)
	}
	return images, rows.Err()
}
