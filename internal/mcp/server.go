// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/helixml/stepsearch/application/service"
	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Searcher provides keyword search for MCP tools.
type Searcher interface {
	Search(ctx context.Context, model, host, project string, category keyword.Category, query string, topK int) ([]keyword.SearchResult, error)
}

// Dumper lists the partitions of the index.
type Dumper interface {
	Dump(ctx context.Context) (service.Snapshot, error)
}

// Defaults holds the values used when a tool call omits an argument.
type Defaults struct {
	Model   string
	Project string
	Limit   int
}

// Server wraps the MCP server with stepsearch-specific tools.
type Server struct {
	mcpServer *server.MCPServer
	searcher  Searcher
	dumper    Dumper
	defaults  Defaults
	logger    *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(searcher Searcher, dumper Dumper, defaults Defaults, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if defaults.Limit <= 0 {
		defaults.Limit = 3
	}

	s := &Server{
		searcher: searcher,
		dumper:   dumper,
		defaults: defaults,
		logger:   logger,
	}

	mcpServer := server.NewMCPServer(
		"stepsearch",
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	searchTool := mcp.NewTool("search",
		mcp.WithDescription("Find the Gherkin step keywords closest to a sentence"),
		mcp.WithString("keyword",
			mcp.Required(),
			mcp.Description("The step text to look up"),
		),
		mcp.WithString("keyword_type",
			mcp.Required(),
			mcp.Description("Step category"),
			mcp.Enum("Context", "Action", "Outcome"),
		),
		mcp.WithString("model",
			mcp.Description(fmt.Sprintf("Embedding model, as model or model@Host (default: %s)", s.defaults.Model)),
		),
		mcp.WithString("project",
			mcp.Description(fmt.Sprintf("Project name (default: %s)", s.defaults.Project)),
		),
		mcp.WithNumber("nb_results",
			mcp.Description(fmt.Sprintf("Number of results to return (default: %d)", s.defaults.Limit)),
		),
	)
	mcpServer.AddTool(searchTool, s.handleSearch)

	listTool := mcp.NewTool("list_partitions",
		mcp.WithDescription("List the indexed partitions with their model, project, category and size"),
	)
	mcpServer.AddTool(listTool, s.handleListPartitions)
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("keyword")
	if err != nil {
		return mcp.NewToolResultError("keyword is required"), nil
	}
	rawCategory, err := request.RequireString("keyword_type")
	if err != nil {
		return mcp.NewToolResultError("keyword_type is required"), nil
	}
	category, err := keyword.ParseCategory(rawCategory)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	spec, err := service.ParseModelSpec(request.GetString("model", s.defaults.Model))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	project := request.GetString("project", s.defaults.Project)
	topK := request.GetInt("nb_results", s.defaults.Limit)

	results, err := s.searcher.Search(ctx, spec.Model, spec.Host, project, category, query, topK)
	if err != nil {
		s.logger.Error("search failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if results == nil {
		results = []keyword.SearchResult{}
	}

	jsonBytes, err := json.Marshal(results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListPartitions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snapshot, err := s.dumper.Dump(ctx)
	if err != nil {
		s.logger.Error("failed to list partitions", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to list partitions: %v", err)), nil
	}

	type partition struct {
		Name      string `json:"name"`
		Model     string `json:"model,omitempty"`
		Project   string `json:"project,omitempty"`
		Category  string `json:"keyword_type,omitempty"`
		Documents int    `json:"documents"`
	}

	out := make([]partition, 0, len(snapshot.Partitions))
	for _, p := range snapshot.Partitions {
		out = append(out, partition{
			Name:      p.Name,
			Model:     p.Model,
			Project:   p.Project,
			Category:  p.Category,
			Documents: len(p.Documents),
		})
	}

	jsonBytes, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal partitions: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MCPServer returns the underlying MCP server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
