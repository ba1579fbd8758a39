package domain

import (
	"strings"
	"time"

	"shortlink/pkg/validator"
)

// Link represents a shortened link in our system
// The hash is the public lookup key; ID is the storage identity and never
// leaves the service except through the management API
type Link struct {
	ID          string      `json:"id"`
	Hash        string      `json:"hash"`
	OriginalURL string      `json:"original_url"`
	Author      string      `json:"author"`
	Tags        []string    `json:"tags"`
	Description string      `json:"description,omitempty"`
	Clicks      DailyClicks `json:"clicks"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	DeletedAt   *time.Time  `json:"-"` // Logical deletion marker (pointer = nullable)
}

// LinkUpdate carries the user-editable fields of a link.
// A nil field is left untouched.
type LinkUpdate struct {
	OriginalURL *string
	Tags        *[]string
	Description *string
}

// IsEmpty reports whether the update changes nothing.
func (u LinkUpdate) IsEmpty() bool {
	return u.OriginalURL == nil && u.Tags == nil && u.Description == nil
}

// LinkStats is the reporting view of a link's click counters
type LinkStats struct {
	LinkID      string      `json:"link_id"`
	Hash        string      `json:"hash"`
	OriginalURL string      `json:"original_url"`
	Clicks      DailyClicks `json:"clicks"`
	Total       int64       `json:"total"`
	Today       int64       `json:"today"`
	TodayKey    string      `json:"today_key"`
}

// NewLink is a constructor function that creates a new Link with an empty
// statistics map
func NewLink(originalURL, hash, author string, tags []string, description string) *Link {
	now := time.Now()
	if tags == nil {
		tags = []string{}
	}
	return &Link{
		Hash:        hash,
		OriginalURL: originalURL,
		Author:      author,
		Tags:        tags,
		Description: description,
		Clicks:      DailyClicks{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsDeleted reports whether the link was logically deleted
func (l *Link) IsDeleted() bool {
	return l.DeletedAt != nil
}

// CheckRedirectable verifies the fields the redirect path depends on.
// A record missing them is treated as broken rather than served.
func (l *Link) CheckRedirectable() error {
	if l.ID == "" || strings.TrimSpace(l.OriginalURL) == "" {
		return ErrMalformedLink
	}
	return nil
}

// RedirectTarget returns the URL a visitor is sent to.
// Schemeless URLs are stored verbatim and only get "http://" here.
// Only a full "http://" or "https://" prefix counts as a scheme, so hosts
// that merely begin with "http" (httpbin.org) are still schemeless and get
// prefixed. A bare startsWith("http") check would send them nowhere.
func RedirectTarget(originalURL string) string {
	if validator.HasHTTPScheme(originalURL) {
		return originalURL
	}
	return "http://" + originalURL
}

// Stats builds the reporting view for the given day key
func (l *Link) Stats(todayKey string) *LinkStats {
	clicks := l.Clicks.Clone()
	return &LinkStats{
		LinkID:      l.ID,
		Hash:        l.Hash,
		OriginalURL: l.OriginalURL,
		Clicks:      clicks,
		Total:       clicks.Total(),
		Today:       clicks.Get(todayKey),
		TodayKey:    todayKey,
	}
}
