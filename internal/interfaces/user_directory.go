package interfaces

import (
	"context"

	"github.com/duffiwer/ledger-service/internal/models"
)

// UserDirectory owns user records. Emails are unique; users are immutable
// after registration.
type UserDirectory interface {
	Register(ctx context.Context, username, email, passwordHash string) (models.User, error)
	Get(ctx context.Context, userID string) (models.User, error)
}
