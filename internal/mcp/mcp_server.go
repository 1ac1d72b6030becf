// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// serverVersion is reported to MCP clients during initialization.
const serverVersion = "1.0.0"

// NewMCPServer initializes and configures the repopulse MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager, client contract.AnalyticsClient) *server.MCPServer {
	s := server.NewMCPServer(
		"Repopulse Server",
		serverVersion,
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		client:  client,
	}

	// --- 1. Tool: get_daily_series ---
	s.AddTool(mcp.NewTool("get_daily_series",
		mcp.WithDescription("Count the commits of a GitHub repository per UTC calendar day."),
		mcp.WithString("owner", mcp.Description("Repository owner (user or organization)."), mcp.Required()),
		mcp.WithString("repo", mcp.Description("Repository name."), mcp.Required()),
		mcp.WithNumber("days", mcp.Description("Keep only the last N days that have commits when no range is given. 0 keeps the whole series.")),
		mcp.WithString("start", mcp.Description("Inclusive start date (YYYY-MM-DD, RFC3339 or 'N days ago').")),
		mcp.WithString("end", mcp.Description("Inclusive end date (YYYY-MM-DD, RFC3339 or 'N days ago').")),
		mcp.WithBoolean("fill_gaps", mcp.Description("Insert zero-count days between the first and last date.")),
		mcp.WithString("order", mcp.Description("Series order. Defaults to 'chronological'."), mcp.Enum("chronological", "first-seen")),
	), h.handleGetDailySeries)

	// --- 2. Tool: ask_repository ---
	s.AddTool(mcp.NewTool("ask_repository",
		mcp.WithDescription("Ask the analytics service a question about a GitHub repository and return its explanation."),
		mcp.WithString("message", mcp.Description("The question to ask."), mcp.Required()),
		mcp.WithString("owner", mcp.Description("Repository owner (user or organization)."), mcp.Required()),
		mcp.WithString("repo", mcp.Description("Repository name."), mcp.Required()),
	), h.handleAskRepository)

	return s
}

// StartMCPServer starts the repopulse MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager, client contract.AnalyticsClient) error {
	s := NewMCPServer(baseCfg, mgr, client)
	return server.ServeStdio(s)
}
