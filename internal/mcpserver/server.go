// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the article tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/articles/internal/apperr"
	"github.com/starford/articles/internal/models"
)

// ArticleService is the subset of article use cases exposed as tools.
type ArticleService interface {
	CreateArticle(ctx context.Context, in models.CreateArticleInput) (models.ArticlePayload, error)
	FindAllArticles(ctx context.Context) ([]models.ArticlePayload, error)
	FindArticleByID(ctx context.Context, publicID string) (models.ArticlePayload, error)
	DeleteArticle(ctx context.Context, publicID string) error
}

// Server wraps the MCP server with the article tools.
type Server struct {
	mcp *server.MCPServer
	svc ArticleService
}

// New creates a new MCP server with all article tools registered.
func New(svc ArticleService) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Articles",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("create_article",
		mcp.WithDescription("Create a new unpublished article. Title must be 3-200 characters, "+
			"description 10-2000 characters. Returns the article with its generated id."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Article title")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Article description")),
	), s.createArticle)

	s.mcp.AddTool(mcp.NewTool("list_articles",
		mcp.WithDescription("List every stored article."),
	), s.listArticles)

	s.mcp.AddTool(mcp.NewTool("get_article",
		mcp.WithDescription("Fetch a single article by its id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Public article id (UUID)")),
	), s.getArticle)

	s.mcp.AddTool(mcp.NewTool("delete_article",
		mcp.WithDescription("Delete an article by its id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Public article id (UUID)")),
	), s.deleteArticle)

	return s
}

// ServeStdio serves MCP requests read from in and writes responses to out
// until in is exhausted or ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError))
	return stdio.Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) createArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	article, err := s.svc.CreateArticle(ctx, models.CreateArticleInput{Title: title, Description: description})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(article), nil
}

func (s *Server) listArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articles, err := s.svc.FindAllArticles(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(articles), nil
}

func (s *Server) getArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	article, err := s.svc.FindArticleByID(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(article), nil
}

func (s *Server) deleteArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteArticle(ctx, id); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("deleted: " + id), nil
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("encode result: " + err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// toolError renders err with the same client-facing messages the HTTP API
// uses. Store and unexpected failures never expose their cause.
func toolError(err error) *mcp.CallToolResult {
	var (
		verr  *apperr.ValidationError
		nfErr *apperr.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		var b strings.Builder
		b.WriteString("Validation failed for one or more fields")
		for _, f := range verr.Fields {
			b.WriteString("\n- " + f.Field + ": " + f.Message)
		}
		return mcp.NewToolResultError(b.String())
	case errors.As(err, &nfErr):
		return mcp.NewToolResultError(nfErr.Error())
	case errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError("Article already exists")
	case errors.Is(err, apperr.ErrStore):
		slog.Error("mcp: store failure", slog.String("error", err.Error()))
		return mcp.NewToolResultError("Database operation failed")
	default:
		slog.Error("mcp: unexpected failure", slog.String("error", err.Error()))
		return mcp.NewToolResultError("An unexpected error occurred")
	}
}
