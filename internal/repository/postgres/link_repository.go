package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes we react to
const (
	codeUniqueViolation = "23505"
	codeInvalidTextRepr = "22P02" // e.g. a non-UUID string compared with the id column
)

const (
	linkColumns         = `id, hash, original_url, author, tags, description, clicks, created_at, updated_at, deleted_at`
	redirectProjection  = `id, hash, original_url`
	defaultQueryTimeout = 3 * time.Second
)

// linkRepository is the PostgreSQL implementation of repository.LinkRepository
type linkRepository struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

// NewLinkRepository creates a new PostgreSQL link repository.
// Every statement runs under queryTimeout unless the caller's context
// expires first.
func NewLinkRepository(db *pgxpool.Pool, queryTimeout time.Duration) repository.LinkRepository {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &linkRepository{db: db, timeout: queryTimeout}
}

// Create inserts a new link and scans the generated ID back into it
func (r *linkRepository) Create(ctx context.Context, link *domain.Link) (err error) {
	defer func(start time.Time) { metrics.ObserveQuery("create", start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if link.Clicks == nil {
		link.Clicks = domain.DailyClicks{}
	}
	if link.Tags == nil {
		link.Tags = []string{}
	}

	query := `
		INSERT INTO links (
			hash, original_url, author, tags, description, clicks, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING id
	`

	err = r.db.QueryRow(
		ctx,
		query,
		link.Hash,
		link.OriginalURL,
		link.Author,
		link.Tags,
		link.Description,
		link.Clicks,
		link.CreatedAt,
		link.UpdatedAt,
	).Scan(&link.ID)
	if err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return domain.ErrHashTaken
		}
		return storeError("create link", err)
	}

	return nil
}

// GetByHash returns only what the redirect needs
func (r *linkRepository) GetByHash(ctx context.Context, hash string) (_ *domain.Link, err error) {
	defer func(start time.Time) { metrics.ObserveQuery("get_by_hash", start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + redirectProjection + ` FROM links WHERE hash = $1 AND deleted_at IS NULL`

	link := &domain.Link{}
	err = r.db.QueryRow(ctx, query, hash).Scan(&link.ID, &link.Hash, &link.OriginalURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, storeError("get link by hash", err)
	}

	return link, nil
}

// GetFullByHash returns the full record for the reporting path
func (r *linkRepository) GetFullByHash(ctx context.Context, hash string) (_ *domain.Link, err error) {
	defer func(start time.Time) { metrics.ObserveQuery("get_full_by_hash", start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + linkColumns + ` FROM links WHERE hash = $1 AND deleted_at IS NULL`
	return r.scanOne(ctx, "get link by hash", query, hash)
}

// GetByID retrieves a live link by its UUID
func (r *linkRepository) GetByID(ctx context.Context, id string) (_ *domain.Link, err error) {
	defer func(start time.Time) { metrics.ObserveQuery("get_by_id", start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1 AND deleted_at IS NULL`
	return r.scanOne(ctx, "get link by id", query, id)
}

// UpdateFields changes the editable columns; nil fields keep their value
func (r *linkRepository) UpdateFields(ctx context.Context, id string, update domain.LinkUpdate) (_ *domain.Link, err error) {
	defer func(start time.Time) { metrics.ObserveQuery("update", start, err) }(time.Now())

	if update.IsEmpty() {
		return nil, domain.ErrEmptyUpdate
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE links
		SET original_url = COALESCE($2, original_url),
		    tags         = COALESCE($3, tags),
		    description  = COALESCE($4, description),
		    updated_at   = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + linkColumns

	return r.scanOne(ctx, "update link", query, id, update.OriginalURL, update.Tags, update.Description)
}

// Delete marks the link deleted; the row and its hash stay reserved
func (r *linkRepository) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { metrics.ObserveQuery("delete", start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE links SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		if pgErrorCode(err) == codeInvalidTextRepr {
			return domain.ErrLinkNotFound
		}
		return storeError("delete link", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrLinkNotFound
	}

	return nil
}

// IncrementDailyClicks bumps clicks[day] by one in a single statement.
// The row lock taken by UPDATE serializes concurrent increments, and
// READ COMMITTED re-reads the row after the lock, so no update is lost.
// updated_at is left alone: a click is not an edit.
func (r *linkRepository) IncrementDailyClicks(ctx context.Context, id, day string) (err error) {
	defer func(start time.Time) { metrics.ObserveQuery("increment_clicks", start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE links
		SET clicks = jsonb_set(
			clicks,
			ARRAY[$2::text],
			to_jsonb(COALESCE((clicks ->> $2::text)::bigint, 0) + 1),
			true
		)
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, id, day)
	if err != nil {
		if pgErrorCode(err) == codeInvalidTextRepr {
			return domain.ErrLinkNotFound
		}
		return storeError("increment daily clicks", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrLinkNotFound
	}

	return nil
}

// ExistsHash checks all rows, deleted included
func (r *linkRepository) ExistsHash(ctx context.Context, hash string) (_ bool, err error) {
	defer func(start time.Time) { metrics.ObserveQuery("exists_hash", start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var exists bool
	err = r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM links WHERE hash = $1)`, hash).Scan(&exists)
	if err != nil {
		return false, storeError("check hash existence", err)
	}

	return exists, nil
}

func (r *linkRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.Ping(ctx); err != nil {
		return storeError("ping database", err)
	}
	return nil
}

func (r *linkRepository) scanOne(ctx context.Context, op, query string, args ...any) (*domain.Link, error) {
	link := &domain.Link{}
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&link.ID,
		&link.Hash,
		&link.OriginalURL,
		&link.Author,
		&link.Tags,
		&link.Description,
		&link.Clicks,
		&link.CreatedAt,
		&link.UpdatedAt,
		&link.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgErrorCode(err) == codeInvalidTextRepr {
			return nil, domain.ErrLinkNotFound
		}
		return nil, storeError(op, err)
	}

	if link.Clicks == nil {
		link.Clicks = domain.DailyClicks{}
	}
	return link, nil
}

// storeError marks err as a store failure while keeping the driver error
// in the chain
func storeError(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// InitDB initializes the database connection pool.
// Called once at startup; the caller owns Close.
func InitDB(ctx context.Context, dsn string, maxConns, minConns int, maxLifetime time.Duration) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = int32(maxConns)
	config.MinConns = int32(minConns)
	config.MaxConnLifetime = maxLifetime
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
