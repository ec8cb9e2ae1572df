package vector

import (
	"context"
	"database/sql"
	"math"
	"testing"

	"github.com/equitylens/equitylens/internal/store"
)

type stubSource struct {
	chunks []store.Chunk
	err    error
}

func (s *stubSource) ChunksByReport(ctx context.Context, reportID string, includeEmbeddings bool) ([]store.Chunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.chunks, nil
}

func testChunk(id string, section string, embedding []float32) store.Chunk {
	chunk := store.Chunk{ChunkID: id, ReportID: "r1", ChunkText: "text " + id, Embedding: embedding}
	if section != "" {
		chunk.Section = sql.NullString{String: section, Valid: true}
	}
	return chunk
}

func TestCosineSimilaritySelf(t *testing.T) {
	v := []float32{0.3, 0.5, 0.8}
	got := CosineSimilarity(v, v)
	if math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("self similarity = %f, want 1.0", got)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	got := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if math.Abs(got) > 1e-9 {
		t.Fatalf("orthogonal similarity = %f, want 0", got)
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	if got := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3}); got != 0 {
		t.Fatalf("zero-norm similarity = %f, want 0", got)
	}
}

func TestSearchRanksByDescendingScore(t *testing.T) {
	source := &stubSource{chunks: []store.Chunk{
		testChunk("far", "", []float32{0, 1, 0}),
		testChunk("near", "", []float32{1, 0.1, 0}),
		testChunk("exact", "", []float32{1, 0, 0}),
	}}
	searcher := NewSearcher(source)
	results, err := searcher.Search(context.Background(), "r1", []float32{1, 0, 0}, 10, 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Chunk.ChunkID != "exact" || results[1].Chunk.ChunkID != "near" {
		t.Fatalf("unexpected order: %s, %s, %s",
			results[0].Chunk.ChunkID, results[1].Chunk.ChunkID, results[2].Chunk.ChunkID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("scores not descending at %d", i)
		}
	}
}

func TestSearchHonorsTopK(t *testing.T) {
	source := &stubSource{chunks: []store.Chunk{
		testChunk("a", "", []float32{1, 0}),
		testChunk("b", "", []float32{0.9, 0.1}),
		testChunk("c", "", []float32{0.8, 0.2}),
	}}
	searcher := NewSearcher(source)
	results, err := searcher.Search(context.Background(), "r1", []float32{1, 0}, 2, 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected topK=2 results, got %d", len(results))
	}
}

func TestSearchNonPositiveTopK(t *testing.T) {
	searcher := NewSearcher(&stubSource{chunks: []store.Chunk{testChunk("a", "", []float32{1})}})
	results, err := searcher.Search(context.Background(), "r1", []float32{1}, 0, 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if results != nil {
		t.Fatalf("expected nil results for topK=0, got %v", results)
	}
}

func TestSearchSkipsMissingEmbeddings(t *testing.T) {
	source := &stubSource{chunks: []store.Chunk{
		testChunk("no-vec", "", nil),
		testChunk("vec", "", []float32{1, 0}),
	}}
	searcher := NewSearcher(source)
	results, err := searcher.Search(context.Background(), "r1", []float32{1, 0}, 10, 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.ChunkID != "vec" {
		t.Fatalf("expected only embedded chunk, got %v", results)
	}
}

func TestSearchMinScoreFiltersBeforeTruncation(t *testing.T) {
	source := &stubSource{chunks: []store.Chunk{
		testChunk("low", "", []float32{0, 1}),
		testChunk("high", "", []float32{1, 0}),
	}}
	searcher := NewSearcher(source)
	results, err := searcher.Search(context.Background(), "r1", []float32{1, 0}, 1, 0.5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.ChunkID != "high" {
		t.Fatalf("expected only high-score chunk, got %v", results)
	}
}

func TestSearchSectionFilter(t *testing.T) {
	source := &stubSource{chunks: []store.Chunk{
		testChunk("rev", "Revenue Breakdown", []float32{1, 0}),
		testChunk("margin", "Margin Structure", []float32{1, 0}),
	}}
	searcher := NewSearcher(source)
	results, err := searcher.SearchSection(context.Background(), "r1", "revenue breakdown", []float32{1, 0}, 10, 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.ChunkID != "rev" {
		t.Fatalf("section filter failed, got %v", results)
	}
}
