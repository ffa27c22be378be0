package profile

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Repository persists profiles
type Repository interface {
	// CreateIfAbsent inserts p unless a profile with its id exists, and
	// returns the stored profile either way
	CreateIfAbsent(ctx context.Context, p *Profile) (*Profile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	SetRole(ctx context.Context, id uuid.UUID, role Role) error
	// List returns profiles newest first
	List(ctx context.Context, offset, limit int) ([]Profile, int64, error)
	Count(ctx context.Context) (int64, error)
}

// Cache is a time-bounded read-through cache keyed by user id
type Cache interface {
	// Get returns nil without error on a miss
	Get(ctx context.Context, id uuid.UUID) (*Profile, error)
	Set(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Uploader stores avatar images and returns their public URL
type Uploader interface {
	Upload(ctx context.Context, publicID string, file io.Reader) (string, error)
}
