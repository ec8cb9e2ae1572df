package webresearch

import (
	"context"
	"strings"
	"testing"
)

func TestParseFocus(t *testing.T) {
	cases := map[string]Focus{
		"news":      FocusNews,
		"ANALYSIS":  FocusAnalysis,
		"financial": FocusFinancial,
		"general":   FocusGeneral,
		"":          FocusGeneral,
		"unknown":   FocusGeneral,
	}
	for raw, want := range cases {
		if got := ParseFocus(raw); got != want {
			t.Fatalf("ParseFocus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestFocusSystemPromptsDiffer(t *testing.T) {
	seen := make(map[string]Focus)
	for _, focus := range []Focus{FocusGeneral, FocusNews, FocusAnalysis, FocusFinancial} {
		prompt := focus.systemPrompt()
		if prompt == "" {
			t.Fatalf("empty system prompt for %q", focus)
		}
		if prior, dup := seen[prompt]; dup {
			t.Fatalf("focus %q and %q share a system prompt", focus, prior)
		}
		seen[prompt] = focus
	}
	if !strings.Contains(FocusNews.systemPrompt(), "news") {
		t.Fatal("news focus prompt does not mention news")
	}
}

func TestSearchDisabledWithoutKey(t *testing.T) {
	t.Setenv("PERPLEXITY_API_KEY", "")
	client := NewClient()
	if client.Enabled() {
		t.Fatal("client should be disabled without an API key")
	}
	if _, err := client.Search(context.Background(), "query", FocusGeneral); err == nil {
		t.Fatal("expected error from disabled client")
	}
}
