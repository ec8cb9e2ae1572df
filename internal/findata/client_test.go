package findata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/equitylens/equitylens/internal/llm"
	"github.com/equitylens/equitylens/internal/tools"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
}

func TestQuerySendsFunctionAndSymbol(t *testing.T) {
	var gotQuery map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"function": r.URL.Query().Get("function"),
			"symbol":   r.URL.Query().Get("symbol"),
			"apikey":   r.URL.Query().Get("apikey"),
		}
		w.Write([]byte(`{"Symbol":"AAPL","Sector":"Technology"}`))
	})

	out, err := client.Overview(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if !strings.Contains(out, "Technology") {
		t.Fatalf("unexpected payload: %s", out)
	}
	if gotQuery["function"] != "OVERVIEW" || gotQuery["symbol"] != "AAPL" || gotQuery["apikey"] != "test-key" {
		t.Fatalf("unexpected query params: %v", gotQuery)
	}
}

func TestQueryNewsUsesTickersParam(t *testing.T) {
	var tickers, limit string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		tickers = r.URL.Query().Get("tickers")
		limit = r.URL.Query().Get("limit")
		w.Write([]byte(`{"items":"5","feed":[]}`))
	})

	if _, err := client.NewsSentiment(context.Background(), "MSFT", 5); err != nil {
		t.Fatalf("news sentiment failed: %v", err)
	}
	if tickers != "MSFT" || limit != "5" {
		t.Fatalf("unexpected params tickers=%q limit=%q", tickers, limit)
	}
}

func TestQuerySurfacesAPIErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Error Message": "Invalid API call."}`))
	})
	if _, err := client.IncomeStatement(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected API error envelope to surface")
	}

	throttled := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "API call frequency reached."}`))
	})
	if _, err := throttled.BalanceSheet(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected throttle note to surface")
	}
}

func TestQueryRejectsMissingSymbol(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	if _, err := client.Earnings(context.Background(), "  "); err == nil {
		t.Fatal("expected symbol validation error")
	}
}

func TestQueryWithoutAPIKey(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.CashFlow(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestRegisterToolsExposesAllFunctions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	})
	registry := tools.NewRegistry()
	if err := client.RegisterTools(registry); err != nil {
		t.Fatalf("register tools failed: %v", err)
	}
	if registry.Len() != 6 {
		t.Fatalf("expected 6 tools, got %d", registry.Len())
	}

	out, err := registry.Execute(context.Background(), llm.ToolCall{
		Name:      "get_company_overview",
		Arguments: `{"symbol":"AAPL"}`,
	})
	if err != nil {
		t.Fatalf("tool execution failed: %v", err)
	}
	if !strings.Contains(out, "ok") {
		t.Fatalf("unexpected tool output: %s", out)
	}

	if _, err := registry.Execute(context.Background(), llm.ToolCall{
		Name:      "get_company_overview",
		Arguments: `{}`,
	}); err == nil {
		t.Fatal("expected missing symbol argument to fail")
	}
}
