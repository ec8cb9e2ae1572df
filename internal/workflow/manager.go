package workflow

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/equitylens/equitylens/internal/common"
	"github.com/equitylens/equitylens/internal/common/telemetry"
	"github.com/equitylens/equitylens/internal/report"
	"github.com/equitylens/equitylens/internal/research"
)

// Status tracks a run through its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Step names the pipeline stage a running run is in.
type Step string

const (
	StepResearch  Step = "research"
	StepSynthesis Step = "synthesis"
	StepStorage   Step = "storage"
)

// Run is a snapshot of one research run's state.
type Run struct {
	RunID      string     `json:"run_id"`
	Ticker     string     `json:"ticker"`
	TradeType  string     `json:"trade_type"`
	Status     Status     `json:"status"`
	Step       Step       `json:"step,omitempty"`
	ReportID   string     `json:"report_id,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

const (
	defaultRunTimeout = 15 * time.Minute
	maxTrackedRuns    = 200
)

// Manager drives the full research pipeline (parallel research, synthesis,
// persistence) and tracks run state for status polling. Finished run
// records are kept in a bounded window; the oldest are pruned first.
type Manager struct {
	orchestrator *research.Orchestrator
	synthesizer  *research.Synthesizer
	storage      *report.Storage
	runTimeout   time.Duration

	mu   sync.RWMutex
	runs map[string]*Run
	wg   sync.WaitGroup
}

// NewManager builds a manager. RESEARCH_RUN_TIMEOUT overrides the default
// per-run deadline.
func NewManager(orchestrator *research.Orchestrator, synthesizer *research.Synthesizer, storage *report.Storage) *Manager {
	timeout := defaultRunTimeout
	if raw := os.Getenv("RESEARCH_RUN_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			timeout = d
		}
	}
	return &Manager{
		orchestrator: orchestrator,
		synthesizer:  synthesizer,
		storage:      storage,
		runTimeout:   timeout,
		runs:         make(map[string]*Run),
	}
}

// StartRun launches the pipeline asynchronously and returns the initial run
// snapshot. The run proceeds on its own deadline, detached from the request
// context.
func (m *Manager) StartRun(ticker, tradeType, userContext string) (Run, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return Run{}, fmt.Errorf("workflow: ticker required")
	}
	tt := research.ParseTradeType(tradeType)

	run := &Run{
		RunID:     uuid.NewString(),
		Ticker:    ticker,
		TradeType: string(tt),
		Status:    StatusPending,
		StartedAt: time.Now().UTC(),
	}

	// Snapshot before the pipeline goroutine starts mutating the shared run.
	snapshot := *run

	m.mu.Lock()
	m.runs[run.RunID] = run
	m.pruneLocked()
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.runTimeout)
		defer cancel()
		m.execute(ctx, run.RunID, ticker, tt, userContext)
	}()

	return snapshot, nil
}

func (m *Manager) execute(ctx context.Context, runID, ticker string, tradeType research.TradeType, userContext string) {
	ctx, finish := telemetry.StartSpan(ctx, "workflow.run")
	defer finish("run_id", runID, "ticker", ticker)

	m.update(runID, func(r *Run) {
		r.Status = StatusRunning
		r.Step = StepResearch
	})

	results := m.orchestrator.RunParallel(ctx, ticker, tradeType, userContext)
	summary := research.Summary(results)
	m.update(runID, func(r *Run) {
		r.Summary = summary
		r.Step = StepSynthesis
	})

	reportText, err := m.synthesizer.Synthesize(ctx, ticker, tradeType, results, userContext)
	if err != nil {
		m.fail(runID, fmt.Errorf("synthesis: %w", err))
		return
	}

	m.update(runID, func(r *Run) { r.Step = StepStorage })

	subjectIDs := make([]string, 0, len(results))
	for id := range results {
		subjectIDs = append(subjectIDs, id)
	}
	sort.Strings(subjectIDs)
	metadata := map[string]interface{}{
		"subjects":     subjectIDs,
		"summary":      summary,
		"user_context": userContext,
	}
	reportID, err := m.storage.Save(ctx, ticker, string(tradeType), reportText, metadata)
	if err != nil {
		m.fail(runID, fmt.Errorf("storage: %w", err))
		return
	}

	now := time.Now().UTC()
	m.update(runID, func(r *Run) {
		r.Status = StatusCompleted
		r.Step = ""
		r.ReportID = reportID
		r.FinishedAt = &now
	})
	common.Logger().Info("research run completed",
		"run_id", runID, "ticker", ticker, "report_id", reportID)
}

func (m *Manager) fail(runID string, err error) {
	now := time.Now().UTC()
	m.update(runID, func(r *Run) {
		r.Status = StatusFailed
		r.Step = ""
		r.Error = err.Error()
		r.FinishedAt = &now
	})
	common.Logger().Error("research run failed", "run_id", runID, "error", err)
}

func (m *Manager) update(runID string, fn func(*Run)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.runs[runID]; ok {
		fn(run)
	}
}

// GetRun returns a snapshot of the run's current state.
func (m *Manager) GetRun(runID string) (Run, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[runID]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// Wait blocks until all in-flight runs finish. Intended for shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// pruneLocked drops the oldest finished runs once the tracked set exceeds
// its cap. In-flight runs are never pruned.
func (m *Manager) pruneLocked() {
	if len(m.runs) <= maxTrackedRuns {
		return
	}
	finished := make([]*Run, 0, len(m.runs))
	for _, run := range m.runs {
		if run.Status == StatusCompleted || run.Status == StatusFailed {
			finished = append(finished, run)
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].StartedAt.Before(finished[j].StartedAt)
	})
	for _, run := range finished {
		if len(m.runs) <= maxTrackedRuns {
			return
		}
		delete(m.runs, run.RunID)
	}
}
