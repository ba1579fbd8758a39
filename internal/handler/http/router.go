package http

import (
	"net/http"

	"shortlink/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions selects the optional parts of the HTTP surface
type RouterOptions struct {
	Logger        *logger.Logger
	RateLimiter   RateLimiter // nil disables rate limiting
	EnableMetrics bool
}

// NewRouter registers every route and wraps the mux in the middleware chain.
//
// Order (outside-in): Recovery, RequestID, Logging, Metrics, CORS,
// RateLimit. Logging and Metrics read the matched pattern after the mux
// ran, so nothing between them and the mux may replace the request.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/links", h.CreateLink)
	mux.HandleFunc("GET /api/v1/links/{id}", h.GetLink)
	mux.HandleFunc("PUT /api/v1/links/{id}", h.UpdateLink)
	mux.HandleFunc("DELETE /api/v1/links/{id}", h.DeleteLink)
	mux.HandleFunc("GET /api/v1/links/{hash}/stats", h.GetStats)

	mux.HandleFunc("GET /health/live", h.Liveness)
	mux.HandleFunc("GET /health/ready", h.Readiness)

	if opts.EnableMetrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// Single-segment catch-all; more specific patterns above win
	mux.HandleFunc("GET /{hash}", h.Redirect)

	middlewares := []func(http.Handler) http.Handler{
		RecoveryMiddleware(opts.Logger),
		RequestIDMiddleware,
		LoggingMiddleware(opts.Logger),
		MetricsMiddleware,
		CORSMiddleware,
	}
	if opts.RateLimiter != nil {
		middlewares = append(middlewares, RateLimitMiddleware(opts.RateLimiter, opts.Logger))
	}

	return Chain(middlewares...)(mux)
}
