package service

import (
	"context"
	"errors"
	"fmt"

	"shortlink/internal/domain"
)

// Resolve maps a hash to the redirect projection of a live link.
//
// The hash is matched exactly with no format check. Results:
//   - domain.ErrLinkNotFound when no live link has the hash
//   - domain.ErrMalformedLink when the stored record lacks an ID or URL
//   - an error wrapping domain.ErrStoreUnavailable when the lookup failed
//
// The cache is consulted first; a deletion marker there answers
// domain.ErrLinkNotFound. Other cache failures are logged and the store is
// used instead.
func (s *LinkService) Resolve(ctx context.Context, hash string) (*domain.Link, error) {
	cached, err := s.cache.GetLink(ctx, hash)
	switch {
	case errors.Is(err, domain.ErrLinkNotFound):
		return nil, domain.ErrLinkNotFound
	case err != nil:
		s.logger.Warn("link cache read failed", "hash", hash, "error", err)
	case cached != nil:
		if cached.CheckRedirectable() == nil {
			return cached, nil
		}
		s.logger.Warn("dropping malformed cache entry", "hash", hash)
		s.invalidate(ctx, hash)
	}

	link, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			return nil, domain.ErrLinkNotFound
		}
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return nil, fmt.Errorf("failed to resolve link: %w", err)
		}
		return nil, fmt.Errorf("failed to resolve link: %w: %w", domain.ErrStoreUnavailable, err)
	}

	if err := link.CheckRedirectable(); err != nil {
		s.logger.Error("stored link is malformed", "hash", hash, "link_id", link.ID)
		return nil, err
	}

	if err := s.cache.AddLink(ctx, link); err != nil {
		s.logger.Warn("failed to cache link", "hash", hash, "error", err)
	}

	return link, nil
}
