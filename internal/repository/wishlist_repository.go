package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
)

type wishlistRepository struct {
	*PostgresRepository
}

func NewWishlistRepository(db *sql.DB, logger zerolog.Logger) WishlistRepository {
	return &wishlistRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *wishlistRepository) List(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	items := []models.WishlistItem{}
	if !validID(userID) {
		return items, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, course_id, added_at
		FROM wishlist_items
		WHERE user_id = $1
		ORDER BY added_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.WishlistItem
		if err := rows.Scan(&item.UserID, &item.CourseID, &item.AddedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *wishlistRepository) Add(ctx context.Context, item *models.WishlistItem) error {
	if !validID(item.CourseID) {
		return apperrors.ErrNotFound
	}

	query := `
		INSERT INTO wishlist_items (user_id, course_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_id) DO NOTHING
	`

	return conditionalInsertResult(r.db.ExecContext(ctx, query, item.UserID, item.CourseID, item.AddedAt))
}

func (r *wishlistRepository) Remove(ctx context.Context, userID, courseID string) error {
	if !validID(userID) || !validID(courseID) {
		return apperrors.ErrNotFound
	}

	return affectedOrNotFound(r.db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND course_id = $2`, userID, courseID))
}
