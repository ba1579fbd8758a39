package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"shortlink/internal/domain"
	"shortlink/internal/repository/memory"
	"shortlink/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapCache is an in-process Cache with the same add/set/marker rules as
// the Redis cache
type mapCache struct {
	mu      sync.Mutex
	entries map[string]*domain.Link
	deleted map[string]bool
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]*domain.Link{}, deleted: map[string]bool{}}
}

func (c *mapCache) GetLink(_ context.Context, hash string) (*domain.Link, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleted[hash] {
		return nil, domain.ErrLinkNotFound
	}
	if link, ok := c.entries[hash]; ok {
		return projection(link.ID, link.Hash, link.OriginalURL), nil
	}
	return nil, nil
}

func (c *mapCache) AddLink(_ context.Context, link *domain.Link) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[link.Hash]; ok || c.deleted[link.Hash] {
		return nil
	}
	c.entries[link.Hash] = projection(link.ID, link.Hash, link.OriginalURL)
	return nil
}

func (c *mapCache) SetLink(_ context.Context, link *domain.Link) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.deleted, link.Hash)
	c.entries[link.Hash] = projection(link.ID, link.Hash, link.OriginalURL)
	return nil
}

func (c *mapCache) MarkDeleted(_ context.Context, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, hash)
	c.deleted[hash] = true
	return nil
}

func (c *mapCache) DeleteLink(_ context.Context, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, hash)
	delete(c.deleted, hash)
	return nil
}

// stallingStore holds the next GetByHash after its read until released,
// so a write can land between the read and the cache fill
type stallingStore struct {
	*memory.Store
	armed   atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func newStallingStore() *stallingStore {
	return &stallingStore{
		Store:   memory.NewStore(),
		read:    make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *stallingStore) GetByHash(ctx context.Context, hash string) (*domain.Link, error) {
	link, err := s.Store.GetByHash(ctx, hash)
	if s.armed.CompareAndSwap(true, false) {
		close(s.read)
		<-s.release
	}
	return link, err
}

// resolveAcross starts a Resolve that reads the store, runs write while the
// fill is pending, then lets the Resolve finish
func resolveAcross(t *testing.T, svc *LinkService, store *stallingStore, hash string, write func()) {
	t.Helper()
	store.armed.Store(true)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Resolve(context.Background(), hash)
		done <- err
	}()

	<-store.read
	write()
	close(store.release)
	require.NoError(t, <-done, "the in-flight read saw the link before the write")
}

func TestResolve_DeleteDuringCacheFillStaysDeleted(t *testing.T) {
	ctx := context.Background()
	store := newStallingStore()
	svc := NewLinkService(store, newMapCache(), logger.Discard().Logger)

	link := domain.NewLink("example.com", "d353bc", "tester", nil, "")
	require.NoError(t, store.Create(ctx, link))

	resolveAcross(t, svc, store, link.Hash, func() {
		require.NoError(t, svc.DeleteLink(ctx, link.ID))
	})

	got, err := svc.Resolve(ctx, link.Hash)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestResolve_UpdateDuringCacheFillServesNewTarget(t *testing.T) {
	ctx := context.Background()
	store := newStallingStore()
	svc := NewLinkService(store, newMapCache(), logger.Discard().Logger)

	link := domain.NewLink("example.com/old", "a1b2c3", "tester", nil, "")
	require.NoError(t, store.Create(ctx, link))

	moved := "example.com/new"
	resolveAcross(t, svc, store, link.Hash, func() {
		_, err := svc.UpdateLink(ctx, link.ID, domain.LinkUpdate{OriginalURL: &moved})
		require.NoError(t, err)
	})

	got, err := svc.Resolve(ctx, link.Hash)
	require.NoError(t, err)
	assert.Equal(t, moved, got.OriginalURL)
}
