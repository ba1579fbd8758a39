package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/repository"
	"shortlink/pkg/validator"
)

const (
	defaultHashLength        = 6
	defaultClickWriteTimeout = 5 * time.Second
	maxHashAttempts          = 10
)

// Cache holds the redirect projection of links keyed by hash.
//
// GetLink returns (nil, nil) on a miss and domain.ErrLinkNotFound when the
// hash carries a deletion marker. AddLink only fills an absent key, so a
// read that raced an update or delete cannot put stale data back; SetLink
// and MarkDeleted overwrite.
type Cache interface {
	GetLink(ctx context.Context, hash string) (*domain.Link, error)
	AddLink(ctx context.Context, link *domain.Link) error
	SetLink(ctx context.Context, link *domain.Link) error
	MarkDeleted(ctx context.Context, hash string) error
	DeleteLink(ctx context.Context, hash string) error
}

// LinkService owns link resolution, click accounting and link management.
// HTTP handlers and the CLI both go through it.
type LinkService struct {
	repo   repository.LinkRepository
	cache  Cache
	logger *slog.Logger

	now          func() time.Time
	newHash      func() (string, error)
	clickTimeout time.Duration

	clicks sync.WaitGroup // in-flight click writes
}

// Option configures a LinkService
type Option func(*LinkService)

// WithClock replaces time.Now; the click day is taken from this clock
func WithClock(now func() time.Time) Option {
	return func(s *LinkService) { s.now = now }
}

// WithHashLength sets the number of hex characters in generated hashes
func WithHashLength(n int) Option {
	return func(s *LinkService) {
		s.newHash = func() (string, error) { return randomHash(n) }
	}
}

// WithHashGenerator replaces the random hash source
func WithHashGenerator(gen func() (string, error)) Option {
	return func(s *LinkService) { s.newHash = gen }
}

// WithClickWriteTimeout bounds each detached click write
func WithClickWriteTimeout(d time.Duration) Option {
	return func(s *LinkService) { s.clickTimeout = d }
}

// NewLinkService creates a new link service. cache may be nil.
func NewLinkService(repo repository.LinkRepository, cache Cache, logger *slog.Logger, opts ...Option) *LinkService {
	if cache == nil {
		cache = noopCache{}
	}
	s := &LinkService{
		repo:         repo,
		cache:        cache,
		logger:       logger,
		now:          time.Now,
		newHash:      func() (string, error) { return randomHash(defaultHashLength) },
		clickTimeout: defaultClickWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewLinkInput carries the fields a caller may set on creation
type NewLinkInput struct {
	OriginalURL string
	Author      string
	Tags        []string
	Description string
}

// CreateLink validates the input, picks an unused hash and stores the link
// with empty statistics
func (s *LinkService) CreateLink(ctx context.Context, in NewLinkInput) (*domain.Link, error) {
	originalURL := strings.TrimSpace(in.OriginalURL)
	if err := validator.ValidateOriginalURL(originalURL); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validator.ValidateTags(in.Tags); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	for attempt := 0; attempt < maxHashAttempts; attempt++ {
		hash, err := s.newHash()
		if err != nil {
			return nil, fmt.Errorf("failed to generate hash: %w", err)
		}

		exists, err := s.repo.ExistsHash(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("failed to check hash: %w", err)
		}
		if exists {
			continue
		}

		link := domain.NewLink(originalURL, hash, in.Author, in.Tags, in.Description)
		link.CreatedAt = s.now()
		link.UpdatedAt = link.CreatedAt

		err = s.repo.Create(ctx, link)
		if errors.Is(err, domain.ErrHashTaken) {
			// lost a race with another insert of the same hash
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create link: %w", err)
		}

		metrics.RecordLinkCreated()
		s.logger.Info("link created", "link_id", link.ID, "hash", link.Hash)

		if err := s.cache.AddLink(ctx, link); err != nil {
			s.logger.Warn("failed to cache link", "hash", link.Hash, "error", err)
		}
		return link, nil
	}

	return nil, fmt.Errorf("%w after %d attempts", domain.ErrHashGeneration, maxHashAttempts)
}

// UpdateLink changes the original URL, tags or description of a link.
// Hash, author and statistics are not editable.
func (s *LinkService) UpdateLink(ctx context.Context, id string, update domain.LinkUpdate) (*domain.Link, error) {
	if update.IsEmpty() {
		return nil, domain.ErrEmptyUpdate
	}
	if update.OriginalURL != nil {
		trimmed := strings.TrimSpace(*update.OriginalURL)
		if err := validator.ValidateOriginalURL(trimmed); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
		update.OriginalURL = &trimmed
	}
	if update.Tags != nil {
		if err := validator.ValidateTags(*update.Tags); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
	}

	link, err := s.repo.UpdateFields(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update link: %w", err)
	}

	// Overwrite rather than drop: a concurrent Resolve holding the old
	// target then finds the key taken and cannot fill it.
	if err := s.cache.SetLink(ctx, link); err != nil {
		s.logger.Warn("failed to refresh cached link", "hash", link.Hash, "error", err)
		s.invalidate(ctx, link.Hash)
	}
	return link, nil
}

// DeleteLink logically deletes a link; its hash then resolves as not found
func (s *LinkService) DeleteLink(ctx context.Context, id string) error {
	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	// Hashes are never reused, so the marker can only ever shadow this link
	if err := s.cache.MarkDeleted(ctx, link.Hash); err != nil {
		s.logger.Warn("failed to mark cached link deleted", "hash", link.Hash, "error", err)
		s.invalidate(ctx, link.Hash)
	}
	s.logger.Info("link deleted", "link_id", id, "hash", link.Hash)
	return nil
}

// GetLink returns a live link by its storage ID, clicks included
func (s *LinkService) GetLink(ctx context.Context, id string) (*domain.Link, error) {
	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

// GetStats returns the per-day click counts of a live link with the
// total and today's count
func (s *LinkService) GetStats(ctx context.Context, hash string) (*domain.LinkStats, error) {
	link, err := s.repo.GetFullByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return link.Stats(domain.Today(s.now)), nil
}

// Ping checks the link store
func (s *LinkService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *LinkService) invalidate(ctx context.Context, hash string) {
	if err := s.cache.DeleteLink(ctx, hash); err != nil {
		s.logger.Warn("failed to invalidate cached link", "hash", hash, "error", err)
	}
}

// randomHash returns n lowercase hex characters from crypto/rand
func randomHash(n int) (string, error) {
	if n <= 0 || n%2 != 0 {
		return "", fmt.Errorf("hash length must be a positive even number, got %d", n)
	}
	b := make([]byte, n/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type noopCache struct{}

func (noopCache) GetLink(context.Context, string) (*domain.Link, error) { return nil, nil }
func (noopCache) AddLink(context.Context, *domain.Link) error           { return nil }
func (noopCache) SetLink(context.Context, *domain.Link) error           { return nil }
func (noopCache) MarkDeleted(context.Context, string) error             { return nil }
func (noopCache) DeleteLink(context.Context, string) error              { return nil }
