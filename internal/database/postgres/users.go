package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/servicehub/internal/database"
)

// UserRepository provides PostgreSQL-backed user storage
type UserRepository struct {
	pool *Pool
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(pool *Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateUser stores a new user
func (r *UserRepository) CreateUser(ctx context.Context, user *database.User) error {
	query := `
		INSERT INTO users (id, name, email, phone, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query, user.ID, user.Name, user.Email, user.Phone, user.Role, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID, returns nil if not found
func (r *UserRepository) GetUser(ctx context.Context, id string) (*database.User, error) {
	return r.getOne(ctx, "WHERE id = $1", id)
}

// GetUserByEmail retrieves the earliest user registered with email, returns nil if not found
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*database.User, error) {
	return r.getOne(ctx, "WHERE email = $1 ORDER BY seq LIMIT 1", email)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*database.User, error) {
	query := `SELECT id, name, email, phone, role, created_at FROM users ` + where

	var u database.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
