package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/caltrack/caltrack/internal/apperror"
	"github.com/caltrack/caltrack/internal/model"
)

// CreateUser inserts a new account. Duplicate emails surface as a
// persistence error from the unique constraint.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return apperror.Persistence("creating user", err)
	}
	return nil
}

// UserByEmail fetches an account for login.
func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, apperror.Persistence("getting user", err)
	}
	return &user, nil
}
