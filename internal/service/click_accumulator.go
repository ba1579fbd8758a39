package service

import (
	"context"
	"fmt"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
)

// RecordClick counts one redirect of link without blocking the caller.
//
// The day is fixed now, when the click is observed. The write runs in its
// own goroutine under a fresh context, so it survives the end of the
// request that triggered it; failures are logged and counted only.
func (s *LinkService) RecordClick(link *domain.Link) {
	when := s.now()
	target := &domain.Link{ID: link.ID, Hash: link.Hash}

	s.clicks.Add(1)
	metrics.ClickWritesInFlight.Inc()

	go func() {
		defer s.clicks.Done()
		defer metrics.ClickWritesInFlight.Dec()

		ctx, cancel := context.WithTimeout(context.Background(), s.clickTimeout)
		defer cancel()

		if err := s.RecordClickAt(ctx, target, when); err != nil {
			s.logger.Error("failed to record click",
				"link_id", target.ID,
				"hash", target.Hash,
				"day", domain.DayKey(when),
				"error", err,
			)
		}
	}()
}

// RecordClickAt synchronously adds one click to the day containing when
func (s *LinkService) RecordClickAt(ctx context.Context, link *domain.Link, when time.Time) error {
	day := domain.DayKey(when)

	err := s.repo.IncrementDailyClicks(ctx, link.ID, day)
	metrics.RecordClickWrite(err)
	if err != nil {
		return fmt.Errorf("failed to increment clicks for %s: %w", day, err)
	}
	return nil
}

// Wait blocks until every click write started by RecordClick has finished.
// Call it after the HTTP server stopped accepting requests.
func (s *LinkService) Wait() {
	s.clicks.Wait()
}
