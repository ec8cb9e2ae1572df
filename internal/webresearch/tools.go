package webresearch

import (
	"context"
	"fmt"

	"github.com/equitylens/equitylens/internal/llm"
	"github.com/equitylens/equitylens/internal/tools"
)

// RegisterTools adds the web research tool to the registry.
func (c *Client) RegisterTools(registry *tools.Registry) error {
	return registry.Register(llm.ToolDefinition{
		Name:        "web_research",
		Description: "Search the live web for information about a company or market topic. Returns a sourced summary.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The research question or search query",
				},
				"focus": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"general", "news", "analysis", "financial"},
					"description": "Source category to prioritize",
				},
			},
			"required": []string{"query"},
		},
	}, func(ctx context.Context, args map[string]interface{}) (string, error) {
		query, ok := args["query"].(string)
		if !ok || query == "" {
			return "", fmt.Errorf("missing required argument query")
		}
		focus := FocusGeneral
		if raw, ok := args["focus"].(string); ok {
			focus = ParseFocus(raw)
		}
		return c.Search(ctx, query, focus)
	})
}
