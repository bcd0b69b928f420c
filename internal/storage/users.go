package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dewanik/voice-ios-budget-server/internal/core"

	"golang.org/x/crypto/bcrypt"
)

// CreateUser provisions an account with a bcrypt-hashed password.
// Registration is handled out of band (subscription checkout is not
// part of this service), so this is reached from the useradd tool.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, email, password string) (core.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, active, created_at) VALUES (?, ?, ?, 1, ?)`,
		username, email, string(hash), time.Now().UTC().Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, ErrUsernameTaken
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", id, "username", username)

	return core.User{ID: id, Username: username, Email: email, Active: true}, nil
}

// Authenticate validates a username/password pair against the stored
// hash. Unknown usernames, wrong passwords and deactivated accounts
// all map to ErrInvalidCredentials so callers cannot tell them apart.
func (r *SQLiteRepository) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	var (
		user   core.User
		hash   string
		active int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, active FROM users WHERE username = ?`,
		username).Scan(&user.ID, &user.Username, &user.Email, &hash, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if active == 0 {
		return core.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return core.User{}, ErrInvalidCredentials
	}

	user.Active = true
	return user, nil
}

// FindUser looks an account up by username regardless of its active flag.
func (r *SQLiteRepository) FindUser(ctx context.Context, username string) (core.User, error) {
	var user core.User
	var active int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, active FROM users WHERE username = ?`,
		username,
	).Scan(&user.ID, &user.Username, &user.Email, &active)
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	user.Active = active == 1
	return user, nil
}

// SetUserActive flips the account's active flag; inactive accounts
// fail the credential check until reactivated.
func (r *SQLiteRepository) SetUserActive(ctx context.Context, userID int64, active bool) error {
	val := 0
	if active {
		val = 1
	}
	_, err := r.db.ExecContext(ctx, `UPDATE users SET active = ? WHERE id = ?`, val, userID)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	return nil
}
