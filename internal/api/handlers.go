package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/outfitter-dev/waymark/internal/edit"
	"github.com/outfitter-dev/waymark/internal/grammar"
	"github.com/outfitter-dev/waymark/internal/index"
	"github.com/outfitter-dev/waymark/internal/lint"
	"github.com/outfitter-dev/waymark/internal/markservice"
)

// maxBody bounds edit request bodies.
const maxBody = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *markservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *markservice.Service) *Handler {
	return &Handler{svc: svc}
}

// filePath extracts the workspace path from the URL (everything after
// /files/). Supports encoded slashes (e.g. src%2Fauth.ts).
func filePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// FindWaymarks handles GET /api/waymarks.
//
//	@Summary		List cached waymarks with optional filters
//	@Tags			waymarks
//	@Produce		json
//	@Param			type	query		string	false	"Marker type (aliases fold)"
//	@Param			tag		query		string	false	"Tag, with or without #"
//	@Param			mention	query		string	false	"Mention, with or without @"
//	@Param			file	query		string	false	"File path, or directory prefix ending in /"
//	@Param			flagged	query		bool	false	"Only flagged waymarks"
//	@Param			starred	query		bool	false	"Only starred waymarks"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	WaymarkListResponse
//	@Security		BearerAuth
//	@Router			/waymarks [get]
func (h *Handler) FindWaymarks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	flagged, _ := strconv.ParseBool(q.Get("flagged"))
	starred, _ := strconv.ParseBool(q.Get("starred"))

	recs, err := h.svc.Find(r.Context(), index.Filter{
		Type:    q.Get("type"),
		Tag:     q.Get("tag"),
		Mention: q.Get("mention"),
		File:    q.Get("file"),
		Flagged: flagged,
		Starred: starred,
		Limit:   limit,
	})
	if err != nil {
		writeError(w, "find waymarks", err)
		return
	}
	writeJSON(w, http.StatusOK, WaymarkListResponse{Waymarks: recs, Total: len(recs)})
}

// ScanFile handles GET /api/files/*.
//
//	@Summary		Parse one file live, bypassing the cache
//	@Tags			files
//	@Produce		json
//	@Param			path	path		string	true	"Workspace path"
//	@Success		200		{object}	FileDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{path} [get]
func (h *Handler) ScanFile(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	detail, err := h.svc.ScanFile(r.Context(), path)
	if err != nil {
		writeError(w, "scan file", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// AddWaymark handles POST /api/waymarks.
//
//	@Summary		Insert a waymark into a file
//	@Tags			waymarks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddWaymarkRequest	true	"Waymark to insert"
//	@Success		201		{object}	EditResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/waymarks [post]
func (h *Handler) AddWaymark(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req AddWaymarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.File == "" || req.Type == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("file and type are required"))
		return
	}
	res, err := h.svc.Add(r.Context(), req.File, edit.InsertSpec{
		Line:    req.Line,
		Type:    req.Type,
		Signals: grammar.Signals{Flagged: req.Flagged, Starred: req.Starred},
		Content: req.Content,
		WithID:  req.WithID,
	})
	if err != nil {
		writeError(w, "add waymark", err)
		return
	}
	writeJSON(w, http.StatusCreated, EditResponse{File: res.File, Record: res.Record})
}

// UpdateWaymark handles PATCH /api/waymarks.
//
//	@Summary		Rewrite a waymark's type, signals or content
//	@Tags			waymarks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		UpdateWaymarkRequest	true	"Target and patch"
//	@Success		200		{object}	EditResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/waymarks [patch]
func (h *Handler) UpdateWaymark(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req UpdateWaymarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.File == "" || (req.Line <= 0 && req.ID == "") {
		writeJSON(w, http.StatusBadRequest, errorBody("file and line or id are required"))
		return
	}
	res, err := h.svc.Update(r.Context(), req.File,
		edit.Target{Line: req.Line, ID: req.ID, Raw: req.Raw},
		edit.Patch{Type: req.Type, Signals: req.Signals, Content: req.Content})
	if err != nil {
		writeError(w, "update waymark", err)
		return
	}
	writeJSON(w, http.StatusOK, EditResponse{File: res.File, Record: res.Record})
}

// RemoveWaymark handles DELETE /api/waymarks.
//
//	@Summary		Remove a waymark by line or id
//	@Tags			waymarks
//	@Param			file	query	string	true	"Workspace path"
//	@Param			line	query	int		false	"Any line of the waymark block"
//	@Param			id		query	string	false	"Embedded waymark id"
//	@Success		204		"Waymark removed"
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/waymarks [delete]
func (h *Handler) RemoveWaymark(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	file := q.Get("file")
	line, _ := strconv.Atoi(q.Get("line"))
	id := q.Get("id")
	if file == "" || (line <= 0 && id == "") {
		writeJSON(w, http.StatusBadRequest, errorBody("file and line or id are required"))
		return
	}
	if _, err := h.svc.Remove(r.Context(), file, edit.Target{Line: line, ID: id}); err != nil {
		writeError(w, "remove waymark", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across waymark content
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the relation graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Graph(r.Context())
	if err != nil {
		writeError(w, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Backlinks handles GET /api/backlinks.
//
//	@Summary		List relations pointing at a canonical token
//	@Tags			graph
//	@Produce		json
//	@Param			token	query		string	true	"Canonical token, with or without #"
//	@Success		200		{array}		models.Edge
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'token' is required"))
		return
	}
	edges, err := h.svc.Backlinks(r.Context(), token)
	if err != nil {
		writeError(w, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": grammar.NormalizeToken(token), "edges": edges})
}

// Lint handles GET /api/lint.
//
//	@Summary		Lint every cached waymark
//	@Tags			lint
//	@Produce		json
//	@Success		200	{object}	LintResponse
//	@Security		BearerAuth
//	@Router			/lint [get]
func (h *Handler) Lint(w http.ResponseWriter, r *http.Request) {
	issues, err := h.svc.Lint(r.Context())
	if err != nil {
		writeError(w, "lint", err)
		return
	}
	writeJSON(w, http.StatusOK, LintResponse{Issues: issues, Errors: lint.HasErrors(issues)})
}

// Stats handles GET /api/stats.
//
//	@Summary		Count cached files, waymarks and edges
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	index.Stats
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
