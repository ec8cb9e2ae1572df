package findata

import (
	"context"
	"fmt"

	"github.com/equitylens/equitylens/internal/llm"
	"github.com/equitylens/equitylens/internal/tools"
)

func symbolSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"symbol": map[string]interface{}{
				"type":        "string",
				"description": "Stock ticker symbol, e.g. AAPL",
			},
		},
		"required": []string{"symbol"},
	}
}

func symbolArg(args map[string]interface{}) (string, error) {
	raw, ok := args["symbol"]
	if !ok {
		return "", fmt.Errorf("missing required argument symbol")
	}
	symbol, ok := raw.(string)
	if !ok || symbol == "" {
		return "", fmt.Errorf("argument symbol must be a non-empty string")
	}
	return symbol, nil
}

// RegisterTools adds the fundamental-data and news tools to the registry.
// Registration is static; errors indicate a programming mistake and are
// returned for the caller to fail startup on.
func (c *Client) RegisterTools(registry *tools.Registry) error {
	simple := []struct {
		name        string
		description string
		fetch       func(ctx context.Context, symbol string) (string, error)
	}{
		{
			name:        "get_company_overview",
			description: "Company overview with sector, industry, market cap, margins, and key ratios.",
			fetch:       c.Overview,
		},
		{
			name:        "get_income_statement",
			description: "Annual and quarterly income statements: revenue, gross profit, operating income, net income.",
			fetch:       c.IncomeStatement,
		},
		{
			name:        "get_balance_sheet",
			description: "Annual and quarterly balance sheets: assets, liabilities, and shareholder equity.",
			fetch:       c.BalanceSheet,
		},
		{
			name:        "get_cash_flow",
			description: "Annual and quarterly cash flow statements: operating, investing, and financing activity.",
			fetch:       c.CashFlow,
		},
		{
			name:        "get_earnings",
			description: "Annual and quarterly earnings history including reported and estimated EPS.",
			fetch:       c.Earnings,
		},
	}
	for _, tool := range simple {
		fetch := tool.fetch
		err := registry.Register(llm.ToolDefinition{
			Name:        tool.name,
			Description: tool.description,
			Parameters:  symbolSchema(),
		}, func(ctx context.Context, args map[string]interface{}) (string, error) {
			symbol, err := symbolArg(args)
			if err != nil {
				return "", err
			}
			return fetch(ctx, symbol)
		})
		if err != nil {
			return err
		}
	}

	return registry.Register(llm.ToolDefinition{
		Name:        "get_news_sentiment",
		Description: "Recent news articles about the company with per-article sentiment scores.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"symbol": map[string]interface{}{
					"type":        "string",
					"description": "Stock ticker symbol, e.g. AAPL",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of articles to return",
				},
			},
			"required": []string{"symbol"},
		},
	}, func(ctx context.Context, args map[string]interface{}) (string, error) {
		symbol, err := symbolArg(args)
		if err != nil {
			return "", err
		}
		limit := 0
		if raw, ok := args["limit"].(float64); ok {
			limit = int(raw)
		}
		return c.NewsSentiment(ctx, symbol, limit)
	})
}
