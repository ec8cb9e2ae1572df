package research

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/equitylens/equitylens/internal/common"
	"github.com/equitylens/equitylens/internal/common/telemetry"
)

// Orchestrator fans research subjects out across a long-lived worker pool
// and collects exactly one result per subject. The pool is created at
// construction and reused across runs; Close drains it at shutdown.
type Orchestrator struct {
	researcher Researcher
	jobCh      chan researchJob
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

type researchJob struct {
	ctx         context.Context
	subject     Subject
	ticker      string
	tradeType   TradeType
	userContext string
	reply       chan<- Result
}

// NewOrchestrator starts a pool of workers over the researcher. Non-positive
// worker counts default to one worker per subject.
func NewOrchestrator(researcher Researcher, workers int) *Orchestrator {
	if workers <= 0 {
		workers = len(subjects)
	}
	o := &Orchestrator{
		researcher: researcher,
		jobCh:      make(chan researchJob),
	}
	for i := 0; i < workers; i++ {
		o.wg.Add(1)
		go o.worker()
	}
	return o
}

func (o *Orchestrator) worker() {
	defer o.wg.Done()
	for job := range o.jobCh {
		result := o.researcher.ResearchSubject(job.ctx, job.subject, job.ticker, job.tradeType, job.userContext)
		job.reply <- result
	}
}

// Close stops the worker pool. In-flight jobs finish; Close blocks until all
// workers exit. Safe to call more than once.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		close(o.jobCh)
	})
	o.wg.Wait()
}

// RunParallel researches every subject for the ticker concurrently and
// returns the complete result set keyed by subject id. The barrier is total:
// every subject produces an entry even when its research fails or the
// context is cancelled mid-run.
func (o *Orchestrator) RunParallel(ctx context.Context, ticker string, tradeType TradeType, userContext string) map[string]Result {
	ctx, finish := telemetry.StartSpan(ctx, "research.run_parallel")
	defer finish("ticker", ticker, "trade_type", string(tradeType))
	telemetry.RecordResearchRun()

	all := Subjects()
	results := make(map[string]Result, len(all))
	reply := make(chan Result, len(all))

	started := time.Now()
	common.Logger().Info("starting parallel research",
		"ticker", ticker, "trade_type", string(tradeType), "subjects", len(all))

	submitted := 0
	for _, subject := range all {
		job := researchJob{
			ctx:         ctx,
			subject:     subject,
			ticker:      ticker,
			tradeType:   tradeType,
			userContext: userContext,
			reply:       reply,
		}
		select {
		case o.jobCh <- job:
			submitted++
		case <-ctx.Done():
			results[subject.ID] = cancelledResult(subject, ticker, tradeType, ctx.Err())
		}
	}

	for i := 0; i < submitted; i++ {
		result := <-reply
		results[result.SubjectID] = result
		telemetry.RecordSubjectResult(result.SubjectID, result.Failed())
		common.Logger().Info("research subject completed",
			"ticker", ticker,
			"subject", result.SubjectID,
			"failed", result.Failed(),
			"progress", fmt.Sprintf("%d/%d", len(results), len(all)))
	}

	common.Logger().Info("parallel research completed",
		"ticker", ticker, "elapsed", time.Since(started).String())
	return results
}

func cancelledResult(subject Subject, ticker string, tradeType TradeType, err error) Result {
	if err == nil {
		err = context.Canceled
	}
	return Result{
		SubjectID:      subject.ID,
		SubjectName:    subject.Name,
		ResearchOutput: fmt.Sprintf("Error in specialized research for %s: %s", subject.Name, err),
		Ticker:         ticker,
		TradeType:      string(tradeType),
		Err:            err.Error(),
	}
}

// Summary renders a short human-readable digest of a result set.
func Summary(results map[string]Result) string {
	lines := []string{
		"Research Summary:",
		fmt.Sprintf("Total subjects researched: %d", len(results)),
	}
	successful := 0
	var failed []string
	for _, r := range results {
		if r.Failed() {
			failed = append(failed, r.SubjectName)
			continue
		}
		successful++
	}
	lines = append(lines, fmt.Sprintf("Successful: %d/%d", successful, len(results)))
	if len(failed) > 0 {
		sort.Strings(failed)
		lines = append(lines, "Failed subjects: "+strings.Join(failed, ", "))
	}
	return strings.Join(lines, "\n")
}
