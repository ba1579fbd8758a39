package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// Cache is a cache-aside store for the redirect projection of a link.
// Only ID, Hash and OriginalURL are cached; click statistics always come
// from the link store.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// cachedLink is the value stored under "link:{hash}". A deleted link is
// kept as a marker with Deleted set and no other fields.
type cachedLink struct {
	ID          string `json:"id,omitempty"`
	Hash        string `json:"hash"`
	OriginalURL string `json:"original_url,omitempty"`
	Deleted     bool   `json:"deleted,omitempty"`
}

// NewCache creates a new Redis cache
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
	}
}

func cacheKey(hash string) string {
	return "link:" + hash
}

// GetLink returns the cached projection, (nil, nil) on a miss, or
// domain.ErrLinkNotFound when the hash is marked deleted
func (c *Cache) GetLink(ctx context.Context, hash string) (*domain.Link, error) {
	defer metrics.ObserveCache("get", time.Now())

	data, err := c.client.Get(ctx, cacheKey(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	metrics.RecordCacheHit()

	var cached cachedLink
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached link: %w", err)
	}
	if cached.Deleted {
		return nil, domain.ErrLinkNotFound
	}

	return &domain.Link{
		ID:          cached.ID,
		Hash:        cached.Hash,
		OriginalURL: cached.OriginalURL,
	}, nil
}

// AddLink caches the projection of link unless the key already holds a
// value. Fills from the read path use it so they never overwrite a newer
// entry or a deletion marker.
func (c *Cache) AddLink(ctx context.Context, link *domain.Link) error {
	defer metrics.ObserveCache("add", time.Now())

	data, err := encodeLink(link)
	if err != nil {
		return err
	}

	if err := c.client.SetNX(ctx, cacheKey(link.Hash), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx error: %w", err)
	}

	return nil
}

// SetLink caches the projection of link with the configured TTL,
// replacing whatever the key held
func (c *Cache) SetLink(ctx context.Context, link *domain.Link) error {
	defer metrics.ObserveCache("set", time.Now())

	data, err := encodeLink(link)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, cacheKey(link.Hash), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

// MarkDeleted replaces the entry with a deletion marker for one TTL.
// Any fill that was in flight when the link was deleted finds the key
// taken; once the marker expires the store answers not found by itself.
func (c *Cache) MarkDeleted(ctx context.Context, hash string) error {
	defer metrics.ObserveCache("mark_deleted", time.Now())

	data, err := json.Marshal(cachedLink{Hash: hash, Deleted: true})
	if err != nil {
		return fmt.Errorf("failed to marshal deletion marker: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(hash), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

func encodeLink(link *domain.Link) ([]byte, error) {
	data, err := json.Marshal(cachedLink{
		ID:          link.ID,
		Hash:        link.Hash,
		OriginalURL: link.OriginalURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal link: %w", err)
	}
	return data, nil
}

// DeleteLink drops the cached entry
func (c *Cache) DeleteLink(ctx context.Context, hash string) error {
	defer metrics.ObserveCache("delete", time.Now())

	if err := c.client.Del(ctx, cacheKey(hash)).Err(); err != nil {
		return fmt.Errorf("redis delete error: %w", err)
	}

	return nil
}

// InitRedis creates a new Redis client and checks the connection
func InitRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
