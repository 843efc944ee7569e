package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"binroute-backend/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// GetUserByEmail returns the user with that email, or nil when there is none
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := withRetry(ctx, s.maxAttempts, s.retryBackoff, func() error {
		return s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = $1", email)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get user", err)
	}
	return &user, nil
}

// CreateUser stores a new account with a bcrypt-hashed password. An existing email is left untouched.
func (s *Store) CreateUser(ctx context.Context, email, password, name, role string) (bool, error) {
	if !models.ValidRole(role) {
		return false, fmt.Errorf("create user: unknown role %q", role)
	}
	if email == "" || password == "" {
		return false, errors.New("create user: email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	var affected int64
	err = withRetry(ctx, s.maxAttempts, s.retryBackoff, func() error {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO users (id, email, password, name, role)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (email) DO NOTHING
		`, uuid.New().String(), email, string(hash), name, role)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, wrap("create user", err)
	}
	return affected > 0, nil
}
