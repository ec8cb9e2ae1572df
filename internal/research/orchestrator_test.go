package research

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type stubResearcher struct {
	mu       sync.Mutex
	calls    int
	failFor  map[string]bool
	delay    time.Duration
	lastArgs []string
}

func (s *stubResearcher) ResearchSubject(ctx context.Context, subject Subject, ticker string, tradeType TradeType, userContext string) Result {
	s.mu.Lock()
	s.calls++
	s.lastArgs = append(s.lastArgs, subject.ID)
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	result := Result{
		SubjectID:   subject.ID,
		SubjectName: subject.Name,
		Ticker:      ticker,
		TradeType:   string(tradeType),
	}
	if s.failFor[subject.ID] {
		result.Err = "simulated failure"
		result.ResearchOutput = fmt.Sprintf("Error in specialized research for %s: simulated failure", subject.Name)
		return result
	}
	result.ResearchOutput = "findings for " + subject.ID
	return result
}

func TestRunParallelProducesOneResultPerSubject(t *testing.T) {
	researcher := &stubResearcher{}
	orch := NewOrchestrator(researcher, 3)
	defer orch.Close()

	results := orch.RunParallel(context.Background(), "AAPL", TradeTypeInvestment, "")
	if len(results) != len(Subjects()) {
		t.Fatalf("expected %d results, got %d", len(Subjects()), len(results))
	}
	for _, subject := range Subjects() {
		result, ok := results[subject.ID]
		if !ok {
			t.Fatalf("missing result for subject %s", subject.ID)
		}
		if result.Ticker != "AAPL" {
			t.Fatalf("result for %s carries ticker %q", subject.ID, result.Ticker)
		}
		if result.Failed() {
			t.Fatalf("unexpected failure for %s: %s", subject.ID, result.Err)
		}
	}
}

func TestRunParallelKeepsFailedSubjects(t *testing.T) {
	researcher := &stubResearcher{failFor: map[string]bool{
		"seasonality":      true,
		"margin_structure": true,
	}}
	orch := NewOrchestrator(researcher, 6)
	defer orch.Close()

	results := orch.RunParallel(context.Background(), "MSFT", TradeTypeSwing, "")
	if len(results) != len(Subjects()) {
		t.Fatalf("expected %d results, got %d", len(Subjects()), len(results))
	}
	failed := 0
	for id, result := range results {
		if result.Failed() {
			failed++
			if result.ResearchOutput == "" {
				t.Fatalf("failed subject %s has no output text", id)
			}
		}
	}
	if failed != 2 {
		t.Fatalf("expected 2 failures, got %d", failed)
	}
}

func TestRunParallelReusesPoolAcrossRuns(t *testing.T) {
	researcher := &stubResearcher{}
	orch := NewOrchestrator(researcher, 2)
	defer orch.Close()

	orch.RunParallel(context.Background(), "AAPL", TradeTypeDay, "")
	orch.RunParallel(context.Background(), "MSFT", TradeTypeDay, "")
	if researcher.calls != 2*len(Subjects()) {
		t.Fatalf("expected %d researcher calls, got %d", 2*len(Subjects()), researcher.calls)
	}
}

func TestSummaryReportsFailures(t *testing.T) {
	results := map[string]Result{
		"products_services": {SubjectID: "products_services", SubjectName: "Products and Services"},
		"seasonality":       {SubjectID: "seasonality", SubjectName: "Seasonality", Err: "boom"},
	}
	summary := Summary(results)
	if !strings.Contains(summary, "Total subjects researched: 2") {
		t.Fatalf("summary missing total: %s", summary)
	}
	if !strings.Contains(summary, "Successful: 1/2") {
		t.Fatalf("summary missing success ratio: %s", summary)
	}
	if !strings.Contains(summary, "Seasonality") {
		t.Fatalf("summary missing failed subject name: %s", summary)
	}
}

func TestSubjectByID(t *testing.T) {
	subject, err := SubjectByID("revenue_breakdown")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if subject.Name != "Revenue Breakdown" {
		t.Fatalf("unexpected subject name %q", subject.Name)
	}
	if _, err := SubjectByID("nonexistent"); err == nil {
		t.Fatal("expected error for unknown subject")
	}
}

func TestFormatPromptAppendsContext(t *testing.T) {
	subject, err := SubjectByID("products_services")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	prompt := subject.FormatPrompt("NVDA", "focus on gaming")
	if !strings.Contains(prompt, "NVDA") {
		t.Fatalf("prompt missing ticker: %s", prompt)
	}
	if !strings.Contains(prompt, "Additional context from user: focus on gaming") {
		t.Fatalf("prompt missing user context: %s", prompt)
	}
	bare := subject.FormatPrompt("NVDA", "")
	if strings.Contains(bare, "Additional context") {
		t.Fatalf("empty context should not be appended: %s", bare)
	}
}
