package memory

import (
	"context"
	"sync"
	"testing"

	"shortlink/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLink(t *testing.T, s *Store, hash string) *domain.Link {
	t.Helper()
	link := domain.NewLink("example.com/page", hash, "author-1", []string{"a"}, "")
	require.NoError(t, s.Create(context.Background(), link))
	require.NotEmpty(t, link.ID)
	return link
}

func TestStore_CreateAndGet(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	link := newLink(t, s, "abc123")

	projection, err := s.GetByHash(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, link.ID, projection.ID)
	assert.Equal(t, "example.com/page", projection.OriginalURL)
	assert.Nil(t, projection.Clicks, "projection carries no statistics")

	full, err := s.GetByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, full.Tags)
	assert.NotNil(t, full.Clicks)
}

func TestStore_CreateDuplicateHash(t *testing.T) {
	s := NewStore()
	newLink(t, s, "abc123")

	err := s.Create(context.Background(), domain.NewLink("other.com", "abc123", "x", nil, ""))
	assert.ErrorIs(t, err, domain.ErrHashTaken)
}

func TestStore_GetByHash_NotFound(t *testing.T) {
	s := NewStore()
	_, err := s.GetByHash(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestStore_IncrementDailyClicks(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	link := newLink(t, s, "abc123")

	require.NoError(t, s.IncrementDailyClicks(ctx, link.ID, "2024-01-01"))
	require.NoError(t, s.IncrementDailyClicks(ctx, link.ID, "2024-01-01"))
	require.NoError(t, s.IncrementDailyClicks(ctx, link.ID, "2024-01-02"))

	full, err := s.GetFullByHash(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, domain.DailyClicks{"2024-01-01": 2, "2024-01-02": 1}, full.Clicks)
}

func TestStore_IncrementDailyClicks_Concurrent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	link := newLink(t, s, "abc123")

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, s.IncrementDailyClicks(ctx, link.ID, "2024-05-01"))
		}()
	}
	wg.Wait()

	full, err := s.GetByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), full.Clicks.Get("2024-05-01"))
}

func TestStore_IncrementUnknownLink(t *testing.T) {
	s := NewStore()
	err := s.IncrementDailyClicks(context.Background(), "missing", "2024-01-01")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestStore_UpdateFields(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	link := newLink(t, s, "abc123")
	require.NoError(t, s.IncrementDailyClicks(ctx, link.ID, "2024-01-01"))

	newURL := "https://example.org"
	tags := []string{"x", "y"}
	updated, err := s.UpdateFields(ctx, link.ID, domain.LinkUpdate{OriginalURL: &newURL, Tags: &tags})
	require.NoError(t, err)

	assert.Equal(t, newURL, updated.OriginalURL)
	assert.Equal(t, tags, updated.Tags)
	assert.Equal(t, "", updated.Description)
	assert.Equal(t, int64(1), updated.Clicks.Get("2024-01-01"), "update leaves clicks alone")

	_, err = s.UpdateFields(ctx, link.ID, domain.LinkUpdate{})
	assert.ErrorIs(t, err, domain.ErrEmptyUpdate)
}

func TestStore_Delete(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	link := newLink(t, s, "abc123")

	require.NoError(t, s.Delete(ctx, link.ID))

	_, err := s.GetByHash(ctx, "abc123")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)

	assert.ErrorIs(t, s.Delete(ctx, link.ID), domain.ErrLinkNotFound)
	assert.ErrorIs(t, s.IncrementDailyClicks(ctx, link.ID, "2024-01-01"), domain.ErrLinkNotFound)

	exists, err := s.ExistsHash(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, exists, "deleted hashes stay reserved")
}

func TestStore_ReturnedLinksAreCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	link := newLink(t, s, "abc123")

	full, err := s.GetByID(ctx, link.ID)
	require.NoError(t, err)
	full.Clicks["2024-01-01"] = 99
	full.Tags[0] = "mutated"

	again, err := s.GetByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.Clicks.Get("2024-01-01"))
	assert.Equal(t, "a", again.Tags[0])
}
