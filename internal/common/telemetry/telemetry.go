package telemetry

import (
	"context"
	"expvar"
	"strings"
	"sync"
	"time"

	"github.com/equitylens/equitylens/internal/common"
)

type spanKey struct{}

type span struct {
	name  string
	start time.Time
}

var (
	initOnce sync.Once

	researchRunsTotal       *expvar.Int
	researchSubjectsTotal   *expvar.Map
	researchFailuresTotal   *expvar.Map
	synthesisTotal          *expvar.Int
	vectorSearchTotal       *expvar.Int
	vectorSearchLatencyMS   *expvar.Int
	embeddingBatchesTotal   *expvar.Int
	embeddingFallbacksTotal *expvar.Int
	chunksStoredTotal       *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		researchRunsTotal = expvar.NewInt("equitylens_research_runs_total")
		researchSubjectsTotal = expvar.NewMap("equitylens_research_subjects_total")
		researchFailuresTotal = expvar.NewMap("equitylens_research_failures_total")
		synthesisTotal = expvar.NewInt("equitylens_synthesis_total")
		vectorSearchTotal = expvar.NewInt("equitylens_vector_search_total")
		vectorSearchLatencyMS = expvar.NewInt("equitylens_vector_search_latency_ms")
		embeddingBatchesTotal = expvar.NewInt("equitylens_embedding_batches_total")
		embeddingFallbacksTotal = expvar.NewInt("equitylens_embedding_fallbacks_total")
		chunksStoredTotal = expvar.NewInt("equitylens_chunks_stored_total")
	})
}

// StartSpan records the start of a named operation and returns a completion
// callback that logs the elapsed duration with any extra attributes.
func StartSpan(ctx context.Context, name string) (context.Context, func(attrs ...interface{})) {
	ensureInit()
	sp := &span{name: name, start: time.Now()}
	ctx = context.WithValue(ctx, spanKey{}, sp)
	logger := common.Logger()
	logger.Debug("trace: start", "span", name)
	return ctx, func(attrs ...interface{}) {
		duration := time.Since(sp.start)
		logger.Debug("trace: end", append([]interface{}{"span", name, "dur", duration}, attrs...)...)
	}
}

// SpanDuration reports the elapsed time of the span carried by ctx, if any.
func SpanDuration(ctx context.Context) time.Duration {
	sp, _ := ctx.Value(spanKey{}).(*span)
	if sp == nil {
		return 0
	}
	return time.Since(sp.start)
}

func RecordResearchRun() {
	ensureInit()
	researchRunsTotal.Add(1)
}

func RecordSubjectResult(subjectID string, failed bool) {
	ensureInit()
	key := strings.TrimSpace(strings.ToLower(subjectID))
	if key == "" {
		key = "unknown"
	}
	researchSubjectsTotal.Add(key, 1)
	if failed {
		researchFailuresTotal.Add(key, 1)
	}
}

func RecordSynthesis() {
	ensureInit()
	synthesisTotal.Add(1)
}

func RecordVectorSearch(duration time.Duration) {
	ensureInit()
	vectorSearchTotal.Add(1)
	if duration > 0 {
		vectorSearchLatencyMS.Add(duration.Milliseconds())
	}
}

func RecordEmbeddingBatch(fallbacks int) {
	ensureInit()
	embeddingBatchesTotal.Add(1)
	if fallbacks > 0 {
		embeddingFallbacksTotal.Add(int64(fallbacks))
	}
}

func RecordChunksStored(count int) {
	ensureInit()
	if count > 0 {
		chunksStoredTotal.Add(int64(count))
	}
}
