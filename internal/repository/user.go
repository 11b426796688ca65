package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/near_miss_mapper/internal/models"
	"github.com/shenikar/near_miss_mapper/internal/service"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) service.UserRepository {
	return &UserRepository{db: db}
}

// Create создает учетную запись, email_or_phone уникален
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO credentials (email_or_phone, password_hash, role)
		VALUES ($1, $2, $3) RETURNING id, created_at;
	`
	err := r.db.QueryRow(ctx, query,
		user.EmailOrPhone,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return service.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmailOrPhone возвращает учетную запись по логину
func (r *UserRepository) GetByEmailOrPhone(ctx context.Context, emailOrPhone string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email_or_phone, password_hash, role, created_at
		FROM credentials
		WHERE email_or_phone = $1;
	`
	err := r.db.QueryRow(ctx, query, emailOrPhone).Scan(
		&user.ID,
		&user.EmailOrPhone,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by login: %w", err)
	}
	return user, nil
}
