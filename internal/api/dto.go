package api

import (
	"github.com/outfitter-dev/waymark/internal/grammar"
	"github.com/outfitter-dev/waymark/internal/index"
	"github.com/outfitter-dev/waymark/internal/lint"
	"github.com/outfitter-dev/waymark/internal/markservice"
)

// AddWaymarkRequest is the request body for inserting a waymark.
type AddWaymarkRequest struct {
	File    string `json:"file" example:"src/auth.ts" validate:"required"`
	Line    int    `json:"line,omitempty" example:"12"`
	Type    string `json:"type" example:"todo" validate:"required"`
	Content string `json:"content" example:"rotate signing keys owner:@alice"`
	Flagged bool   `json:"flagged,omitempty"`
	Starred bool   `json:"starred,omitempty"`
	WithID  bool   `json:"with_id,omitempty"`
}

// UpdateWaymarkRequest is the request body for rewriting a waymark. Nil
// fields are left unchanged.
type UpdateWaymarkRequest struct {
	File    string           `json:"file" example:"src/auth.ts" validate:"required"`
	Line    int              `json:"line,omitempty" example:"12"`
	ID      string           `json:"id,omitempty" example:"k3f9a2b"`
	Raw     string           `json:"raw,omitempty"`
	Type    *string          `json:"type,omitempty" example:"done"`
	Content *string          `json:"content,omitempty"`
	Signals *grammar.Signals `json:"signals,omitempty"`
}

// FileDetail is the live parse response (aliased from the domain layer).
type FileDetail = markservice.FileDetail

// GraphResponse is the relation graph (aliased from the domain layer).
type GraphResponse = markservice.Graph

// WaymarkListResponse wraps cached waymark listings.
type WaymarkListResponse struct {
	Waymarks []grammar.Record `json:"waymarks" validate:"required"`
	Total    int              `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// LintResponse wraps lint findings.
type LintResponse struct {
	Issues []lint.Issue `json:"issues" validate:"required"`
	Errors bool         `json:"errors"`
}

// EditResponse describes a completed edit.
type EditResponse struct {
	File   string         `json:"file" example:"src/auth.ts" validate:"required"`
	Record grammar.Record `json:"record" validate:"required"`
}
