package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/paperdesk/internal/rbac"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownRole        = errors.New("unknown role")
	ErrInvalidUser        = errors.New("username and a password of at least 8 characters required")
)

// UserStore keeps admin-panel accounts in the users table.
type UserStore struct{ db *sql.DB }

func NewUserStore(db *sql.DB) *UserStore { return &UserStore{db: db} }

// EnsureAdmin creates or refreshes the bootstrap admin from a bcrypt hash.
func (s *UserStore) EnsureAdmin(ctx context.Context, username, passHash string) error {
	if username == "" || passHash == "" {
		return errors.New("admin user and hash required")
	}
	if _, err := bcrypt.Cost([]byte(passHash)); err != nil {
		return fmt.Errorf("admin hash: %w", err)
	}
	return s.put(ctx, username, passHash, rbac.RoleAdmin)
}

// CreateUser hashes password and upserts the account.
func (s *UserStore) CreateUser(ctx context.Context, username, password, role string) error {
	if username == "" || len(password) < 8 {
		return ErrInvalidUser
	}
	if !rbac.ValidRole(role) {
		return ErrUnknownRole
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.put(ctx, username, string(h), role)
}

func (s *UserStore) put(ctx context.Context, username, hash, role string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (username, pass_hash, role, created_at) VALUES ($1,$2,$3,$4)
ON CONFLICT(username) DO UPDATE SET pass_hash=excluded.pass_hash, role=excluded.role`,
		username, hash, role, time.Now().Unix())
	return err
}

func (s *UserStore) Authenticate(ctx context.Context, username, password string) (string, error) {
	var hash, role string
	err := s.db.QueryRowContext(ctx, `SELECT pass_hash, role FROM users WHERE username=$1`, username).Scan(&hash, &role)
	if errors.Is(err, sql.ErrNoRows) {
		// same bcrypt cost as a known user
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8.tYq4V6bXkR1aVvRPmGfI9Hc5tS2."), []byte(password))
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return role, nil
}

// Role returns the stored role, or sql.ErrNoRows.
func (s *UserStore) Role(ctx context.Context, username string) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `SELECT role FROM users WHERE username=$1`, username).Scan(&role)
	return role, err
}
