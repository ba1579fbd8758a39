package memory

import (
	"context"
	"sync"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/repository"

	"github.com/google/uuid"
)

// Store keeps links in process memory. It backs the "memory" driver
// and the unit tests; all state is lost on restart.
type Store struct {
	mu     sync.Mutex
	byID   map[string]*domain.Link
	byHash map[string]string // hash -> id, deleted links included

	now func() time.Time
}

var _ repository.LinkRepository = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		byID:   make(map[string]*domain.Link),
		byHash: make(map[string]string),
		now:    time.Now,
	}
}

func (s *Store) Create(_ context.Context, link *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byHash[link.Hash]; taken {
		return domain.ErrHashTaken
	}

	link.ID = uuid.NewString()
	stored := copyLink(link)
	if stored.Clicks == nil {
		stored.Clicks = domain.DailyClicks{}
	}
	s.byID[stored.ID] = stored
	s.byHash[stored.Hash] = stored.ID
	return nil
}

func (s *Store) GetByHash(_ context.Context, hash string) (*domain.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.liveByHash(hash)
	if !ok {
		return nil, domain.ErrLinkNotFound
	}
	return &domain.Link{ID: link.ID, Hash: link.Hash, OriginalURL: link.OriginalURL}, nil
}

func (s *Store) GetFullByHash(_ context.Context, hash string) (*domain.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.liveByHash(hash)
	if !ok {
		return nil, domain.ErrLinkNotFound
	}
	return copyLink(link), nil
}

func (s *Store) GetByID(_ context.Context, id string) (*domain.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.byID[id]
	if !ok || link.IsDeleted() {
		return nil, domain.ErrLinkNotFound
	}
	return copyLink(link), nil
}

func (s *Store) UpdateFields(_ context.Context, id string, update domain.LinkUpdate) (*domain.Link, error) {
	if update.IsEmpty() {
		return nil, domain.ErrEmptyUpdate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.byID[id]
	if !ok || link.IsDeleted() {
		return nil, domain.ErrLinkNotFound
	}

	if update.OriginalURL != nil {
		link.OriginalURL = *update.OriginalURL
	}
	if update.Tags != nil {
		link.Tags = append([]string{}, (*update.Tags)...)
	}
	if update.Description != nil {
		link.Description = *update.Description
	}
	link.UpdatedAt = s.now()

	return copyLink(link), nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.byID[id]
	if !ok || link.IsDeleted() {
		return domain.ErrLinkNotFound
	}

	now := s.now()
	link.DeletedAt = &now
	link.UpdatedAt = now
	return nil
}

// IncrementDailyClicks performs the read-modify-write under the store
// mutex, so concurrent increments are never lost.
func (s *Store) IncrementDailyClicks(_ context.Context, id, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.byID[id]
	if !ok || link.IsDeleted() {
		return domain.ErrLinkNotFound
	}
	link.Clicks.Increment(day)
	return nil
}

func (s *Store) ExistsHash(_ context.Context, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.byHash[hash]
	return ok, nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

// liveByHash must be called with mu held
func (s *Store) liveByHash(hash string) (*domain.Link, bool) {
	id, ok := s.byHash[hash]
	if !ok {
		return nil, false
	}
	link := s.byID[id]
	if link.IsDeleted() {
		return nil, false
	}
	return link, true
}

// copyLink detaches callers from the stored record
func copyLink(l *domain.Link) *domain.Link {
	c := *l
	c.Tags = append([]string{}, l.Tags...)
	c.Clicks = l.Clicks.Clone()
	if l.DeletedAt != nil {
		t := *l.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}
