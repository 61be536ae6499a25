package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/outfitter-dev/waymark/internal/markservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *markservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Cached waymarks.
	r.Get("/waymarks", h.FindWaymarks)
	r.Post("/waymarks", h.AddWaymark)
	r.Patch("/waymarks", h.UpdateWaymark)
	r.Delete("/waymarks", h.RemoveWaymark)

	// Live parse of one file.
	r.Get("/files/*", h.ScanFile)

	r.Get("/search", h.Search)
	r.Get("/graph", h.Graph)
	r.Get("/backlinks", h.Backlinks)
	r.Get("/lint", h.Lint)
	r.Get("/stats", h.Stats)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
