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

type promptRepository struct {
	*PostgresRepository
}

func NewPromptRepository(db *sql.DB, logger zerolog.Logger) PromptRepository {
	return &promptRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const promptColumns = `id, title, description, category, prompts, tips, image, source_url, created_at`

func scanPrompt(row scanner) (*models.Prompt, error) {
	p := &models.Prompt{}
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Category,
		pq.Array(&p.Prompts),
		pq.Array(&p.Tips),
		&p.Image,
		&p.SourceURL,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Prompts = nonNil(p.Prompts)
	p.Tips = nonNil(p.Tips)
	return p, nil
}

func (r *promptRepository) Create(ctx context.Context, p *models.Prompt) error {
	query := `
		INSERT INTO prompts (id, title, description, category, prompts, tips, image, source_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING
	`

	return conditionalInsertResult(r.db.ExecContext(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.Category,
		pq.Array(nonNil(p.Prompts)),
		pq.Array(nonNil(p.Tips)),
		p.Image,
		p.SourceURL,
		p.CreatedAt,
	))
}

func (r *promptRepository) GetByID(ctx context.Context, id string) (*models.Prompt, error) {
	if !validID(id) {
		return nil, apperrors.ErrNotFound
	}

	p, err := scanPrompt(r.db.QueryRowContext(ctx, `SELECT `+promptColumns+` FROM prompts WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOnNoRows(err)
	}
	return p, nil
}

// List keeps import order.
func (r *promptRepository) List(ctx context.Context, f models.PromptFilter) ([]models.Prompt, int, error) {
	var (
		args  []interface{}
		conds []string
	)
	if f.Title != "" {
		args = append(args, likePattern(f.Title))
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prompts`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count prompts: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM prompts%s ORDER BY seq LIMIT $%d OFFSET $%d`,
		promptColumns, where, len(args)+1, len(args)+2)
	args = append(args, limitArg(f.Limit), f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer rows.Close()

	items := []models.Prompt{}
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *p)
	}

	return items, total, rows.Err()
}
