package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/duffiwer/ledger-service/internal/interfaces"
	"github.com/duffiwer/ledger-service/internal/models"
)

// uniqueViolation is the postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// UserDirectory is a PostgreSQL implementation of interfaces.UserDirectory.
type UserDirectory struct {
	db *sql.DB
}

func NewUserDirectory(db *sql.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) Register(ctx context.Context, username, email, passwordHash string) (models.User, error) {
	const query = `INSERT INTO users (id, username, email, password_hash, created_at)
	VALUES ($1, $2, $3, $4, $5)`

	u := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := d.db.ExecContext(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.User{}, models.ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return u, nil
}

func (d *UserDirectory) Get(ctx context.Context, userID string) (models.User, error) {
	const query = `SELECT id, username, email, password_hash, created_at
	FROM users WHERE id = $1`

	var u models.User
	err := d.db.QueryRowContext(ctx, query, userID).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return models.User{}, models.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return u, nil
}

var _ interfaces.UserDirectory = (*UserDirectory)(nil)
