package workflow

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/equitylens/equitylens/internal/llm"
	"github.com/equitylens/equitylens/internal/report"
	"github.com/equitylens/equitylens/internal/research"
	"github.com/equitylens/equitylens/internal/store"
)

type fakeResearcher struct{}

func (fakeResearcher) ResearchSubject(ctx context.Context, subject research.Subject, ticker string, tradeType research.TradeType, userContext string) research.Result {
	return research.Result{
		SubjectID:      subject.ID,
		SubjectName:    subject.Name,
		ResearchOutput: "findings for " + subject.ID,
		Ticker:         ticker,
		TradeType:      string(tradeType),
	}
}

type fakeProvider struct {
	chatErr error
}

func (p *fakeProvider) Chat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (string, error) {
	if p.chatErr != nil {
		return "", p.chatErr
	}
	return "# Synthesized Report\nAll findings combined.", nil
}

func (p *fakeProvider) RunTools(ctx context.Context, req llm.ToolRunRequest) (*llm.RunResult, error) {
	return &llm.RunResult{Output: "unused"}, nil
}

func (p *fakeProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	out := make([][]float32, len(input))
	for i := range input {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (p *fakeProvider) Name() string { return "fake" }

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (fakeEmbedder) Dimension() int { return 3 }

func newTestManager(t *testing.T, provider llm.Provider) (*Manager, *report.Storage) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "wf.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	orch := research.NewOrchestrator(fakeResearcher{}, 3)
	t.Cleanup(orch.Close)
	storage := report.NewStorage(st, fakeEmbedder{})
	return NewManager(orch, research.NewSynthesizer(provider), storage), storage
}

func waitForRun(t *testing.T, m *Manager, runID string) Run {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		run, ok := m.GetRun(runID)
		if !ok {
			t.Fatalf("run %s disappeared", runID)
		}
		if run.Status == StatusCompleted || run.Status == StatusFailed {
			return run
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s did not finish", runID)
	return Run{}
}

func TestStartRunCompletesAndPersistsReport(t *testing.T) {
	manager, storage := newTestManager(t, &fakeProvider{})
	run, err := manager.StartRun("aapl", "investment", "focus on services")
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	if run.Status != StatusPending || run.Ticker != "AAPL" {
		t.Fatalf("unexpected initial run state: %+v", run)
	}

	final := waitForRun(t, manager, run.RunID)
	if final.Status != StatusCompleted {
		t.Fatalf("run failed: %+v", final)
	}
	if final.ReportID == "" {
		t.Fatal("completed run carries no report id")
	}
	if final.FinishedAt == nil {
		t.Fatal("completed run has no finish time")
	}

	rep, err := storage.Get(context.Background(), final.ReportID)
	if err != nil {
		t.Fatalf("persisted report missing: %v", err)
	}
	if rep.TradeType != string(research.TradeTypeInvestment) {
		t.Fatalf("unexpected trade type %q", rep.TradeType)
	}
	if rep.Metadata == nil {
		t.Fatal("run metadata not stored")
	}
	if _, ok := rep.Metadata["subjects"]; !ok {
		t.Fatal("metadata missing subjects")
	}
}

func TestStartRunSnapshotIsStable(t *testing.T) {
	manager, _ := newTestManager(t, &fakeProvider{})

	runIDs := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		run, err := manager.StartRun("nvda", "day", "")
		if err != nil {
			t.Fatalf("start run %d: %v", i, err)
		}
		// The returned snapshot reflects the state at submission even when
		// the pipeline goroutine advances the tracked run immediately.
		if run.Status != StatusPending {
			t.Fatalf("run %d snapshot status %q, want %q", i, run.Status, StatusPending)
		}
		if run.Step != "" || run.ReportID != "" {
			t.Fatalf("run %d snapshot already mutated: %+v", i, run)
		}
		runIDs = append(runIDs, run.RunID)
	}
	for _, id := range runIDs {
		waitForRun(t, manager, id)
	}
}

func TestStartRunRequiresTicker(t *testing.T) {
	manager, _ := newTestManager(t, &fakeProvider{})
	if _, err := manager.StartRun("   ", "investment", ""); err == nil {
		t.Fatal("expected error for blank ticker")
	}
}

func TestRunFailsWhenSynthesisFails(t *testing.T) {
	manager, _ := newTestManager(t, &fakeProvider{chatErr: errors.New("model unavailable")})
	run, err := manager.StartRun("msft", "swing", "")
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	final := waitForRun(t, manager, run.RunID)
	if final.Status != StatusFailed {
		t.Fatalf("expected failed run, got %+v", final)
	}
	if final.Error == "" {
		t.Fatal("failed run carries no error")
	}
}

func TestGetRunUnknown(t *testing.T) {
	manager, _ := newTestManager(t, &fakeProvider{})
	if _, ok := manager.GetRun("nope"); ok {
		t.Fatal("expected unknown run to be absent")
	}
}
