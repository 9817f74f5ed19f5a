package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
)

type contentRepository struct {
	*PostgresRepository
}

func NewContentRepository(db *sql.DB, logger zerolog.Logger) ContentRepository {
	return &contentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const contentColumns = `id, kind, title, category, description, body, cover_image, video_url,
	created_by, created_at, updated_at`

func scanContent(row scanner) (*models.Content, error) {
	c := &models.Content{}
	var kind string
	err := row.Scan(
		&c.ID,
		&kind,
		&c.Title,
		&c.Category,
		&c.Description,
		&c.Body,
		&c.CoverImage,
		&c.VideoURL,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Kind = models.ContentKind(kind)
	c.Comments = []models.Comment{}
	return c, nil
}

func (r *contentRepository) Create(ctx context.Context, c *models.Content) error {
	query := `
		INSERT INTO contents (id, kind, title, category, description, body, cover_image, video_url,
			created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.Kind.String(),
		c.Title,
		c.Category,
		c.Description,
		c.Body,
		c.CoverImage,
		c.VideoURL,
		c.CreatedBy,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *contentRepository) GetByID(ctx context.Context, kind models.ContentKind, id string) (*models.Content, error) {
	if !validID(id) {
		return nil, apperrors.ErrNotFound
	}

	query := `SELECT ` + contentColumns + ` FROM contents WHERE id = $1 AND kind = $2`
	c, err := scanContent(r.db.QueryRowContext(ctx, query, id, kind.String()))
	if err != nil {
		return nil, notFoundOnNoRows(err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, content_id, user_id, comment, created_at
		FROM content_comments
		WHERE content_id = $1
		ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cm models.Comment
		if err := rows.Scan(&cm.ID, &cm.ContentID, &cm.UserID, &cm.Comment, &cm.CreatedAt); err != nil {
			return nil, err
		}
		c.Comments = append(c.Comments, cm)
	}

	return c, rows.Err()
}

func (r *contentRepository) List(ctx context.Context, f models.ContentFilter) ([]models.Content, int, error) {
	args := []interface{}{f.Kind.String()}
	conds := []string{"kind = $1"}
	if f.Title != "" {
		args = append(args, likePattern(f.Title))
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.AuthorIDs != nil {
		ids := validIDs(f.AuthorIDs)
		if len(ids) == 0 {
			return []models.Content{}, 0, nil
		}
		args = append(args, pq.Array(ids))
		conds = append(conds, fmt.Sprintf("created_by = ANY($%d)", len(args)))
	}

	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contents`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count content: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM contents%s ORDER BY seq DESC LIMIT $%d OFFSET $%d`,
		contentColumns, where, len(args)+1, len(args)+2)
	args = append(args, limitArg(f.Limit), f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list content: %w", err)
	}
	defer rows.Close()

	items := []models.Content{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *c)
	}

	return items, total, rows.Err()
}

func (r *contentRepository) Delete(ctx context.Context, kind models.ContentKind, id string) error {
	if !validID(id) {
		return apperrors.ErrNotFound
	}

	return affectedOrNotFound(r.db.ExecContext(ctx,
		`DELETE FROM contents WHERE id = $1 AND kind = $2`, id, kind.String()))
}

func (r *contentRepository) AddComment(ctx context.Context, cm *models.Comment) error {
	if !validID(cm.ContentID) {
		return apperrors.ErrNotFound
	}

	query := `
		INSERT INTO content_comments (id, content_id, user_id, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, cm.ID, cm.ContentID, cm.UserID, cm.Comment, cm.CreatedAt)
	if isForeignKeyViolation(err) {
		return apperrors.ErrNotFound
	}
	return err
}

func (r *contentRepository) UpdateCover(ctx context.Context, kind models.ContentKind, id, coverURL string) error {
	if !validID(id) {
		return apperrors.ErrNotFound
	}

	query := `UPDATE contents SET cover_image = $3, updated_at = NOW() WHERE id = $1 AND kind = $2`
	return affectedOrNotFound(r.db.ExecContext(ctx, query, id, kind.String(), coverURL))
}
