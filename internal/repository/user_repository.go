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

type userRepository struct {
	*PostgresRepository
}

func NewUserRepository(db *sql.DB, logger zerolog.Logger) UserRepository {
	return &userRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const userColumns = `id, full_name, email, phone_number, password_hash, role, status,
	designation, profile_pic, skills, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var status string
	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.PhoneNumber,
		&user.PasswordHash,
		&user.Role,
		&status,
		&user.Designation,
		&user.ProfilePic,
		pq.Array(&user.Skills),
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Status = models.UserStatus(status)
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, full_name, email, phone_number, password_hash, role, status,
			designation, profile_pic, skills, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.FullName,
		user.Email,
		user.PhoneNumber,
		user.PasswordHash,
		user.Role,
		user.Status.String(),
		user.Designation,
		user.ProfilePic,
		pq.Array(nonNil(user.Skills)),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperrors.ErrConflict
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, apperrors.ErrNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	return user, notFoundOnNoRows(err)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(email)))
	return user, notFoundOnNoRows(err)
}

func (r *userRepository) GetSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	result := make(map[string]models.UserSummary, len(ids))
	ids = validIDs(ids)
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT id, full_name, profile_pic FROM users WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query user summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(&s.ID, &s.FullName, &s.ProfilePic); err != nil {
			return nil, err
		}
		result[s.ID] = s
	}

	return result, rows.Err()
}

func (r *userRepository) FindIDsByName(ctx context.Context, name string) ([]string, error) {
	query := `SELECT id FROM users WHERE full_name ILIKE $1`
	rows, err := r.db.QueryContext(ctx, query, likePattern(name))
	if err != nil {
		return nil, fmt.Errorf("failed to query users by name: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *userRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	where := ""
	args := []interface{}{}
	if filter.Search != "" {
		where = ` WHERE full_name ILIKE $1 OR email ILIKE $1`
		args = append(args, likePattern(filter.Search))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at, id LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)+1, len(args)+2)
	args = append(args, limitArg(filter.Limit), filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}

	return users, total, rows.Err()
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if !validID(user.ID) {
		return apperrors.ErrNotFound
	}

	query := `
		UPDATE users
		SET full_name = $2, phone_number = $3, password_hash = $4, role = $5, status = $6,
			designation = $7, profile_pic = $8, skills = $9, updated_at = $10
		WHERE id = $1
	`

	return affectedOrNotFound(r.db.ExecContext(ctx, query,
		user.ID,
		user.FullName,
		user.PhoneNumber,
		user.PasswordHash,
		user.Role,
		user.Status.String(),
		user.Designation,
		user.ProfilePic,
		pq.Array(nonNil(user.Skills)),
		user.UpdatedAt,
	))
}

// likePattern escapes LIKE metacharacters and wraps s for a substring match.
func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
