package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/service"
	"shortlink/pkg/logger"
	"shortlink/pkg/validator"
)

const (
	maxBodyBytes      = 1 << 20
	readinessTimeout  = 2 * time.Second
	anonymousAuthor   = "anonymous"
	msgLinkNotFound   = "Link not found"
	msgInternalError  = "Internal server error"
	msgInvalidJSON    = "Invalid JSON body"
	msgStoreUnhealthy = "Link store unavailable"
)

// LinkService defines the service methods needed by the handler
type LinkService interface {
	Resolve(ctx context.Context, hash string) (*domain.Link, error)
	RecordClick(link *domain.Link)
	CreateLink(ctx context.Context, in service.NewLinkInput) (*domain.Link, error)
	UpdateLink(ctx context.Context, id string, update domain.LinkUpdate) (*domain.Link, error)
	DeleteLink(ctx context.Context, id string) error
	GetLink(ctx context.Context, id string) (*domain.Link, error)
	GetStats(ctx context.Context, hash string) (*domain.LinkStats, error)
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	links   LinkService
	logger  *logger.Logger
	baseURL string // used to build short URLs, e.g. "http://localhost:8080"
}

// NewHandler creates a new HTTP handler
func NewHandler(links LinkService, log *logger.Logger, baseURL string) *Handler {
	return &Handler{
		links:   links,
		logger:  log,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Request/Response DTOs

type CreateLinkRequest struct {
	URL         string   `json:"url"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
}

// UpdateLinkRequest leaves absent fields unchanged
type UpdateLinkRequest struct {
	URL         *string   `json:"url"`
	Tags        *[]string `json:"tags"`
	Description *string   `json:"description"`
}

type LinkResponse struct {
	ID          string    `json:"id"`
	Hash        string    `json:"hash"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	Author      string    `json:"author"`
	Tags        []string  `json:"tags"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (h *Handler) toResponse(link *domain.Link) LinkResponse {
	tags := link.Tags
	if tags == nil {
		tags = []string{}
	}
	return LinkResponse{
		ID:          link.ID,
		Hash:        link.Hash,
		ShortURL:    h.baseURL + "/" + link.Hash,
		OriginalURL: link.OriginalURL,
		Author:      link.Author,
		Tags:        tags,
		Description: link.Description,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
	}
}

// Redirect handles GET /{hash}.
//
// A resolved link answers 302 to its target and then records the click
// in the background. Unknown, deleted and malformed links answer 404;
// any other failure answers 500. Only a resolved link is counted.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	log := h.logger.WithContext(r.Context())

	link, err := h.links.Resolve(r.Context(), hash)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrLinkNotFound), errors.Is(err, domain.ErrMalformedLink):
		log.Debug("link not found", "hash", hash, "error", err)
		metrics.RecordRedirect(metrics.OutcomeNotFound)
		respondError(w, http.StatusNotFound, msgLinkNotFound)
		return
	default:
		log.Error("failed to resolve link", "hash", hash, "error", err)
		metrics.RecordRedirect(metrics.OutcomeError)
		respondError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	http.Redirect(w, r, domain.RedirectTarget(link.OriginalURL), http.StatusFound)
	h.links.RecordClick(link)
	metrics.RecordRedirect(metrics.OutcomeResolved)
}

// CreateLink handles POST /api/v1/links
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondFail(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	author := strings.TrimSpace(req.Author)
	if author == "" {
		author = anonymousAuthor
	}

	link, err := h.links.CreateLink(r.Context(), service.NewLinkInput{
		OriginalURL: req.URL,
		Author:      author,
		Tags:        req.Tags,
		Description: req.Description,
	})
	if err != nil {
		h.respondServiceError(w, r, "failed to create link", err)
		return
	}

	respondSuccess(w, http.StatusCreated, map[string]any{"link": h.toResponse(link)})
}

// UpdateLink handles PUT /api/v1/links/{id}
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req UpdateLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondFail(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	link, err := h.links.UpdateLink(r.Context(), id, domain.LinkUpdate{
		OriginalURL: req.URL,
		Tags:        req.Tags,
		Description: req.Description,
	})
	if err != nil {
		h.respondServiceError(w, r, "failed to update link", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]any{"link": h.toResponse(link)})
}

// DeleteLink handles DELETE /api/v1/links/{id}
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	if err := h.links.DeleteLink(r.Context(), r.PathValue("id")); err != nil {
		h.respondServiceError(w, r, "failed to delete link", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLink handles GET /api/v1/links/{id}
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.links.GetLink(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, r, "failed to get link", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{"link": h.toResponse(link)})
}

// GetStats handles GET /api/v1/links/{hash}/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.links.GetStats(r.Context(), r.PathValue("hash"))
	if err != nil {
		h.respondServiceError(w, r, "failed to get stats", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{"stats": stats})
}

// Liveness handles GET /health/live
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Readiness handles GET /health/ready; it fails while the store is unreachable
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.links.Ping(ctx); err != nil {
		h.logger.WithContext(r.Context()).Warn("readiness check failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, msgStoreUnhealthy)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"status": "ready"})
}

// respondServiceError maps service errors onto the API envelope
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case validator.IsValidationError(err):
		respondFail(w, http.StatusBadRequest, rootMessage(err))
	case errors.Is(err, domain.ErrEmptyUpdate):
		respondFail(w, http.StatusBadRequest, domain.ErrEmptyUpdate.Error())
	case errors.Is(err, domain.ErrLinkNotFound):
		respondError(w, http.StatusNotFound, msgLinkNotFound)
	default:
		h.logger.WithContext(r.Context()).Error(msg, "error", err)
		respondError(w, http.StatusInternalServerError, msgInternalError)
	}
}

// rootMessage strips the wrapping prefixes added on the way up
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}
