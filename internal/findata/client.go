package findata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/equitylens/equitylens/internal/common"
)

// Client fetches company fundamentals and news sentiment from the
// Alpha Vantage HTTP API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a client from cfg. Missing fields take defaults.
func NewClient(cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Function names accepted by the upstream API.
const (
	fnOverview        = "OVERVIEW"
	fnIncomeStatement = "INCOME_STATEMENT"
	fnBalanceSheet    = "BALANCE_SHEET"
	fnCashFlow        = "CASH_FLOW"
	fnEarnings        = "EARNINGS"
	fnNewsSentiment   = "NEWS_SENTIMENT"
)

// Query performs a single API call and returns the raw JSON payload as a
// compact string suitable for feeding back to a model. API-level error
// envelopes ("Error Message", "Note", "Information") are surfaced as errors.
func (c *Client) Query(ctx context.Context, function, symbol string, extra url.Values) (string, error) {
	if !c.cfg.Enabled() {
		return "", fmt.Errorf("findata: no API key configured")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("findata: %s: symbol required", function)
	}

	params := url.Values{}
	params.Set("function", function)
	params.Set("apikey", c.cfg.APIKey)
	if function == fnNewsSentiment {
		params.Set("tickers", symbol)
	} else {
		params.Set("symbol", symbol)
	}
	for key, values := range extra {
		for _, v := range values {
			params.Add(key, v)
		}
	}

	endpoint := c.cfg.BaseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("findata: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("findata: %s %s: %w", function, symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("findata: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("findata: %s %s: status %d", function, symbol, resp.StatusCode)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("findata: decode response: %w", err)
	}
	for _, key := range []string{"Error Message", "Note", "Information"} {
		if raw, ok := envelope[key]; ok {
			var detail string
			_ = json.Unmarshal(raw, &detail)
			common.Logger().Warn("financial data request rejected",
				"function", function, "symbol", symbol, "detail", detail)
			return "", fmt.Errorf("findata: %s %s: %s", function, symbol, detail)
		}
	}
	return string(body), nil
}

// Overview returns the company overview for symbol.
func (c *Client) Overview(ctx context.Context, symbol string) (string, error) {
	return c.Query(ctx, fnOverview, symbol, nil)
}

// IncomeStatement returns annual and quarterly income statements.
func (c *Client) IncomeStatement(ctx context.Context, symbol string) (string, error) {
	return c.Query(ctx, fnIncomeStatement, symbol, nil)
}

// BalanceSheet returns annual and quarterly balance sheets.
func (c *Client) BalanceSheet(ctx context.Context, symbol string) (string, error) {
	return c.Query(ctx, fnBalanceSheet, symbol, nil)
}

// CashFlow returns annual and quarterly cash-flow statements.
func (c *Client) CashFlow(ctx context.Context, symbol string) (string, error) {
	return c.Query(ctx, fnCashFlow, symbol, nil)
}

// Earnings returns annual and quarterly earnings history.
func (c *Client) Earnings(ctx context.Context, symbol string) (string, error) {
	return c.Query(ctx, fnEarnings, symbol, nil)
}

// NewsSentiment returns recent news articles with sentiment scores. limit
// bounds the article count; non-positive values use the upstream default.
func (c *Client) NewsSentiment(ctx context.Context, symbol string, limit int) (string, error) {
	extra := url.Values{}
	if limit > 0 {
		extra.Set("limit", fmt.Sprintf("%d", limit))
	}
	extra.Set("sort", "LATEST")
	return c.Query(ctx, fnNewsSentiment, symbol, extra)
}
