package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/repopulse/core"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
	client  contract.AnalyticsClient
}

// repoFromRequest reads the required owner and repo arguments.
func repoFromRequest(request mcp.CallToolRequest) (schema.RepoRef, error) {
	owner := strings.TrimSpace(request.GetString("owner", ""))
	repo := strings.TrimSpace(request.GetString("repo", ""))
	if owner == "" || repo == "" {
		return schema.RepoRef{}, fmt.Errorf("owner and repo are required")
	}
	return schema.NewRepoRef(owner, repo)
}

func (h *toolHandler) handleGetDailySeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := repoFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	now := time.Now()
	start, err := contract.ParseDateBound(request.GetString("start", ""), now)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid start: %v", err)), nil
	}
	end, err := contract.ParseDateBound(request.GetString("end", ""), now)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid end: %v", err)), nil
	}
	days := request.GetInt("days", h.baseCfg.Days)
	if days < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("days cannot be negative (received %d)", days)), nil
	}

	cfg := h.baseCfg.CloneWithRange(start, end, days)
	cfg.Repo = repo
	cfg.FillGaps = request.GetBool("fill_gaps", cfg.FillGaps)
	if o := request.GetString("order", ""); o != "" {
		order := schema.OrderPolicy(o)
		if _, ok := schema.ValidOrderPolicies[order]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid order '%s'. must be chronological, first-seen", o)), nil
		}
		cfg.Order = order
	}

	result, _, err := core.GetSeriesResults(core.WithQuiet(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("series failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleAskRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := repoFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if h.baseCfg.GitHubToken == "" {
		return mcp.NewToolResultError("a GitHub token is required. Set REPOPULSE_GITHUB_TOKEN or GITHUB_TOKEN"), nil
	}

	cfg := h.baseCfg.Clone()
	cfg.Repo = repo
	cfg.Message = strings.TrimSpace(request.GetString("message", ""))

	result, err := core.GetAskResult(core.WithQuiet(ctx), cfg, h.mgr, h.client, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}
	return mcp.NewToolResultText(result.Response.Explanation), nil
}
