package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/marsscrape/models"
)

// newAPIClient returns a client for the marsscrape HTTP API. A full run can
// take a couple of minutes when the browser has to start cold.
func newAPIClient(apiURL string) *resty.Client {
	return resty.New().
		SetBaseURL(apiURL).
		SetTimeout(180*time.Second).
		SetHeader("Accept", "application/json")
}

func registerTools(s *server.MCPServer, c *resty.Client) {
	scrapeTool := mcp.NewTool("scrape_mars",
		mcp.WithDescription("Scrape the latest Mars news, featured image, facts table and hemisphere images, store them as the current snapshot and return it as Markdown. Drives a headless browser, so it is slow."),
	)
	s.AddTool(scrapeTool, handleScrapeMars(c))

	factsTool := mcp.NewTool("get_mars_facts",
		mcp.WithDescription("Return the most recently stored Mars snapshot without scraping."),
		mcp.WithString("format",
			mcp.Description("Output format: 'markdown' (default) or 'json'"),
			mcp.Enum("markdown", "json"),
		),
	)
	s.AddTool(factsTool, handleGetMarsFacts(c))
}

func handleScrapeMars(c *resty.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var out models.ScrapeResponse
		resp, err := c.R().
			SetContext(ctx).
			SetResult(&out).
			SetError(&out).
			Post("/api/v1/scrape")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		if resp.IsError() || !out.Success {
			return mcp.NewToolResultError(apiErrorText(resp.StatusCode(), out.Error)), nil
		}

		md, err := fetchMarkdown(ctx, c)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s\n\n---\nScraped in %dms", md, out.Timing.TotalMs)), nil
	}
}

func handleGetMarsFacts(c *resty.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if request.GetString("format", "markdown") != "json" {
			md, err := fetchMarkdown(ctx, c)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(md), nil
		}

		var out models.RecordResponse
		resp, err := c.R().
			SetContext(ctx).
			SetResult(&out).
			SetError(&out).
			Get("/api/v1/mars")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		if resp.IsError() || !out.Success {
			return mcp.NewToolResultError(apiErrorText(resp.StatusCode(), out.Error)), nil
		}

		pretty, err := json.MarshalIndent(out.Record, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to format snapshot: %v", err)), nil
		}
		return mcp.NewToolResultText(string(pretty)), nil
	}
}

// fetchMarkdown reads the stored snapshot rendered as Markdown.
func fetchMarkdown(ctx context.Context, c *resty.Client) (string, error) {
	var failure models.RecordResponse
	resp, err := c.R().
		SetContext(ctx).
		SetQueryParam("format", "markdown").
		SetError(&failure).
		Get("/api/v1/mars")
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%s", apiErrorText(resp.StatusCode(), failure.Error))
	}
	return resp.String(), nil
}

func apiErrorText(status int, detail *models.ErrorDetail) string {
	if detail == nil {
		return fmt.Sprintf("request failed with HTTP %d", status)
	}
	return fmt.Sprintf("[%s] %s", detail.Code, detail.Message)
}
