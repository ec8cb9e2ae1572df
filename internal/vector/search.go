package vector

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/equitylens/equitylens/internal/common"
	"github.com/equitylens/equitylens/internal/common/telemetry"
	"github.com/equitylens/equitylens/internal/store"
)

// ChunkSource supplies the stored chunks for one report.
type ChunkSource interface {
	ChunksByReport(ctx context.Context, reportID string, includeEmbeddings bool) ([]store.Chunk, error)
}

// ScoredChunk pairs a chunk with its similarity to the query vector.
type ScoredChunk struct {
	Chunk store.Chunk `json:"chunk"`
	Score float64     `json:"score"`
}

// Searcher ranks a report's chunks by cosine similarity against a query
// vector. Brute force over tens of chunks per report; no index needed.
type Searcher struct {
	source ChunkSource
}

func NewSearcher(source ChunkSource) *Searcher {
	return &Searcher{source: source}
}

// Search returns the topK chunks for reportID ranked by descending cosine
// similarity to query, keeping only scores >= minScore. Filtering happens
// before sorting and truncation. Ties keep original chunk order.
func (s *Searcher) Search(ctx context.Context, reportID string, query []float32, topK int, minScore float64) ([]ScoredChunk, error) {
	return s.search(ctx, reportID, "", query, topK, minScore)
}

// SearchSection behaves like Search restricted to chunks whose section label
// matches exactly.
func (s *Searcher) SearchSection(ctx context.Context, reportID, section string, query []float32, topK int, minScore float64) ([]ScoredChunk, error) {
	return s.search(ctx, reportID, section, query, topK, minScore)
}

func (s *Searcher) search(ctx context.Context, reportID, section string, query []float32, topK int, minScore float64) ([]ScoredChunk, error) {
	if s == nil || s.source == nil {
		return nil, errors.New("chunk source not configured")
	}
	if topK <= 0 {
		return nil, nil
	}
	start := time.Now()
	chunks, err := s.source.ChunksByReport(ctx, reportID, true)
	if err != nil {
		return nil, err
	}
	results := make([]ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		if section != "" && !strings.EqualFold(chunk.SectionName(), section) {
			continue
		}
		score := CosineSimilarity(query, chunk.Embedding)
		if score < minScore {
			continue
		}
		results = append(results, ScoredChunk{Chunk: chunk, Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	telemetry.RecordVectorSearch(time.Since(start))
	common.Logger().Debug("vector: search complete", "report_id", reportID, "candidates", len(chunks), "results", len(results))
	return results, nil
}

// CosineSimilarity computes dot(a,b)/(|a|*|b|). A zero-norm vector on either
// side yields 0 rather than an error.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	for i := n; i < len(a); i++ {
		normA += float64(a[i]) * float64(a[i])
	}
	for i := n; i < len(b); i++ {
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
