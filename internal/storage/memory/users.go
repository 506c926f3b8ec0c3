package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duffiwer/ledger-service/internal/interfaces"
	"github.com/duffiwer/ledger-service/internal/models"
)

// UserDirectory is an in-memory implementation of interfaces.UserDirectory.
type UserDirectory struct {
	mu     sync.Mutex
	users  map[string]*models.User
	emails map[string]string // lowercased email -> user id
}

// NewUserDirectory creates an empty in-memory user directory.
func NewUserDirectory() *UserDirectory {
	return &UserDirectory{
		users:  make(map[string]*models.User),
		emails: make(map[string]string),
	}
}

// Register stores a new user, enforcing email uniqueness.
func (d *UserDirectory) Register(ctx context.Context, username, email, passwordHash string) (models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := strings.ToLower(email)
	if _, taken := d.emails[key]; taken {
		return models.User{}, models.ErrEmailTaken
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	d.users[u.ID] = u
	d.emails[key] = u.ID
	return *u, nil
}

// Get returns a copy of the user record.
func (d *UserDirectory) Get(ctx context.Context, userID string) (models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[userID]
	if !ok {
		return models.User{}, models.ErrUserNotFound
	}
	return *u, nil
}

var _ interfaces.UserDirectory = (*UserDirectory)(nil)
