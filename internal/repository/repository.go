package repository

import (
	"context"

	"shortlink/internal/domain"
)

// LinkRepository defines the interface for link data access.
// Implementations report a missing or logically deleted link as
// domain.ErrLinkNotFound, and connectivity failures wrapped in
// domain.ErrStoreUnavailable.
type LinkRepository interface {
	// Create inserts a new link and fills in its ID.
	// A hash collision is reported as domain.ErrHashTaken.
	Create(ctx context.Context, link *domain.Link) error

	// GetByHash returns the redirect projection of a live link:
	// ID, Hash and OriginalURL only (no clicks, no tags)
	GetByHash(ctx context.Context, hash string) (*domain.Link, error)

	// GetByID returns the full live record
	GetByID(ctx context.Context, id string) (*domain.Link, error)

	// GetFullByHash returns the full live record, clicks included
	GetFullByHash(ctx context.Context, hash string) (*domain.Link, error)

	// UpdateFields applies the non-nil fields of update and returns the
	// updated record. Clicks are never touched here.
	UpdateFields(ctx context.Context, id string, update domain.LinkUpdate) (*domain.Link, error)

	// Delete marks the link deleted
	Delete(ctx context.Context, id string) error

	// IncrementDailyClicks adds exactly one to clicks[day] as a single
	// atomic operation; concurrent calls never lose updates.
	IncrementDailyClicks(ctx context.Context, id, day string) error

	// ExistsHash checks every link, deleted ones included, so hashes are
	// never reused
	ExistsHash(ctx context.Context, hash string) (bool, error)

	// Ping checks the store is reachable
	Ping(ctx context.Context) error
}
