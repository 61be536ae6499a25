// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes waymark tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/outfitter-dev/waymark/internal/apperr"
	"github.com/outfitter-dev/waymark/internal/edit"
	"github.com/outfitter-dev/waymark/internal/grammar"
	"github.com/outfitter-dev/waymark/internal/index"
	"github.com/outfitter-dev/waymark/internal/markservice"
)

// Server wraps the MCP server with waymark tools.
type Server struct {
	mcp *server.MCPServer
	svc *markservice.Service
}

// New creates a new MCP server with all waymark tools registered.
func New(svc *markservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"waymark",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("scan_file",
		mcp.WithDescription("Parse one file live and return every waymark in it as JSON."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Workspace-relative path (e.g. src/auth.ts)")),
	), s.scanFile)

	s.mcp.AddTool(mcp.NewTool("find_waymarks",
		mcp.WithDescription("Query cached waymarks. All filters are optional and combine with AND."),
		mcp.WithString("type", mcp.Description("Marker type; aliases such as fixme fold to fix")),
		mcp.WithString("tag", mcp.Description("Tag, with or without #")),
		mcp.WithString("mention", mcp.Description("Mention, with or without @")),
		mcp.WithString("file", mcp.Description("File path, or a directory prefix ending in /")),
		mcp.WithBoolean("flagged", mcp.Description("Only flagged (~) waymarks")),
		mcp.WithBoolean("starred", mcp.Description("Only starred (*) waymarks")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results")),
	), s.findWaymarks)

	s.mcp.AddTool(mcp.NewTool("search_waymarks",
		mcp.WithDescription("Full-text search through waymark content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchWaymarks)

	s.mcp.AddTool(mcp.NewTool("add_waymark",
		mcp.WithDescription("Insert a waymark into a file using the file's comment syntax. "+
			"Read the grammar first via get_grammar or the "+GrammarURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Workspace-relative file path")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Marker type, e.g. todo, fix, note")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Waymark content; may contain properties, @mentions and #tags")),
		mcp.WithNumber("line", mcp.Description("1-based line to insert before; omit to append")),
		mcp.WithBoolean("flagged", mcp.Description("Add the ~ signal")),
		mcp.WithBoolean("starred", mcp.Description("Add the * signal")),
		mcp.WithBoolean("with_id", mcp.Description("Embed a stable [[id]]")),
	), s.addWaymark)

	s.mcp.AddTool(mcp.NewTool("remove_waymark",
		mcp.WithDescription("Remove a waymark block by any of its lines or by its [[id]]."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Workspace-relative file path")),
		mcp.WithNumber("line", mcp.Description("Any line of the waymark block")),
		mcp.WithString("id", mcp.Description("Embedded waymark id")),
	), s.removeWaymark)

	s.mcp.AddTool(mcp.NewTool("get_grammar",
		mcp.WithDescription("Returns the waymark grammar reference. "+
			"Call this before adding waymarks to ensure correct syntax."),
	), s.getGrammar)

	s.mcp.AddResource(
		mcp.NewResource(GrammarURI, "Waymark Grammar",
			mcp.WithResourceDescription("Waymark syntax, blessed markers, property keys and relation kinds."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGrammarResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func errorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found: " + err.Error())
	case errors.Is(err, apperr.ErrInvalidTarget):
		return mcp.NewToolResultError("no waymark at target: " + err.Error())
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func (s *Server) scanFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.ScanFile(ctx, path)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(detail), nil
}

func (s *Server) findWaymarks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := s.svc.Find(ctx, index.Filter{
		Type:    req.GetString("type", ""),
		Tag:     req.GetString("tag", ""),
		Mention: req.GetString("mention", ""),
		File:    req.GetString("file", ""),
		Flagged: req.GetBool("flagged", false),
		Starred: req.GetBool("starred", false),
		Limit:   req.GetInt("limit", 0),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(recs), nil
}

func (s *Server) searchWaymarks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) addWaymark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.svc.Add(ctx, path, edit.InsertSpec{
		Line:    req.GetInt("line", 0),
		Type:    typ,
		Signals: grammar.Signals{Flagged: req.GetBool("flagged", false), Starred: req.GetBool("starred", false)},
		Content: content,
		WithID:  req.GetBool("with_id", false),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added: %s:%d", res.File, res.Record.StartLine)), nil
}

func (s *Server) removeWaymark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target := edit.Target{Line: req.GetInt("line", 0), ID: req.GetString("id", "")}
	if target.Line <= 0 && target.ID == "" {
		return mcp.NewToolResultError("line or id is required"), nil
	}
	res, err := s.svc.Remove(ctx, path, target)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed: %s:%d-%d", res.File, res.Record.StartLine, res.Record.EndLine)), nil
}

func (s *Server) getGrammar(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(GrammarReference()), nil
}

func (s *Server) readGrammarResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GrammarURI,
			MIMEType: "text/markdown",
			Text:     GrammarReference(),
		},
	}, nil
}
