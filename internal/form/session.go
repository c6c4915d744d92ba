package form

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/geocoder89/marathonreg/internal/domain/registration"
)

var ErrSessionNotFound = errors.New("form session not found")

// DefaultSessionTTL applies when a store is given no positive TTL.
const DefaultSessionTTL = 30 * time.Minute

// Session is a saved form in progress. Only the raw record is stored;
// errors and price are derived again when the session is loaded.
type Session struct {
	ID        string              `json:"id"`
	Record    registration.Record `json:"record"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func NewSession() Session {
	now := time.Now().UTC()
	return Session{
		ID:        uuid.NewString(),
		Record:    registration.Empty(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Store keeps sessions until they expire or are deleted.
// Get returns ErrSessionNotFound for unknown or expired ids.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}
