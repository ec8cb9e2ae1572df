package webresearch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/equitylens/equitylens/internal/common"
)

const (
	defaultBaseURL = "https://api.perplexity.ai"
	defaultModel   = "sonar"
)

// Focus narrows a web research query toward a source category.
type Focus string

const (
	FocusGeneral   Focus = "general"
	FocusNews      Focus = "news"
	FocusAnalysis  Focus = "analysis"
	FocusFinancial Focus = "financial"
)

// ParseFocus maps a raw string onto a known focus, defaulting to general.
func ParseFocus(raw string) Focus {
	switch Focus(strings.ToLower(strings.TrimSpace(raw))) {
	case FocusNews:
		return FocusNews
	case FocusAnalysis:
		return FocusAnalysis
	case FocusFinancial:
		return FocusFinancial
	default:
		return FocusGeneral
	}
}

func (f Focus) systemPrompt() string {
	switch f {
	case FocusNews:
		return "You are a research assistant focused on recent news. Prioritize articles from the last week, cite publication dates, and summarize the most market-relevant developments."
	case FocusAnalysis:
		return "You are a research assistant focused on analyst commentary. Prioritize analyst reports, price-target changes, and professional commentary, citing the firm and date."
	case FocusFinancial:
		return "You are a research assistant focused on financial disclosures. Prioritize earnings releases, SEC filings, and investor presentations, citing the reporting period."
	default:
		return "You are a research assistant performing web research. Provide a factual, well-sourced summary with citations."
	}
}

// Client performs live web research through a Sonar-style search model
// exposed over an OpenAI-compatible chat API.
type Client struct {
	api     openai.Client
	model   string
	enabled bool
}

// NewClient reads PERPLEXITY_API_KEY, PERPLEXITY_BASE_URL, and
// PERPLEXITY_MODEL from the environment. Without a key the client is
// disabled and every query reports so.
func NewClient() *Client {
	apiKey := os.Getenv("PERPLEXITY_API_KEY")
	baseURL := os.Getenv("PERPLEXITY_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := os.Getenv("PERPLEXITY_MODEL")
	if model == "" {
		model = defaultModel
	}
	c := &Client{model: model, enabled: apiKey != ""}
	if c.enabled {
		c.api = openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
		)
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Search runs one research query under the given focus and returns the
// model's sourced summary.
func (c *Client) Search(ctx context.Context, query string, focus Focus) (string, error) {
	if !c.enabled {
		return "", fmt.Errorf("webresearch: no API key configured")
	}
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("webresearch: empty query")
	}
	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(focus.systemPrompt()),
			openai.UserMessage(query),
		},
	})
	if err != nil {
		return "", fmt.Errorf("webresearch: search: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("webresearch: empty completion")
	}
	common.Logger().Debug("web research completed", "focus", string(focus), "query_len", len(query))
	return completion.Choices[0].Message.Content, nil
}
