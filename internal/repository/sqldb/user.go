package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/teataster/teataster/internal/models"
	"github.com/teataster/teataster/internal/repository"
)

type userRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sql.DB, dialect Dialect) repository.UserRepository {
	return &userRepository{db: db, dialect: dialect}
}

func (r *userRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	query := r.dialect.rebind(`
		SELECT id, created_at, tz_offset_min
		FROM users
		WHERE id = $1`)

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.CreatedAt,
		&user.TzOffsetMin,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := r.dialect.rebind(`
		INSERT INTO users (id, created_at, tz_offset_min)
		VALUES ($1, $2, $3)`)

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	if _, err := r.db.ExecContext(ctx, query, user.ID, user.CreatedAt, user.TzOffsetMin); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (r *userRepository) SetTimezone(ctx context.Context, id int64, offsetMin int) error {
	query := r.dialect.rebind(`UPDATE users SET tz_offset_min = $2 WHERE id = $1`)

	result, err := r.db.ExecContext(ctx, query, id, offsetMin)
	if err != nil {
		return fmt.Errorf("failed to set timezone: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %d not found", id)
	}

	return nil
}
