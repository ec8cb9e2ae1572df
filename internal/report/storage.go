package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/equitylens/equitylens/internal/common"
	"github.com/equitylens/equitylens/internal/common/telemetry"
	"github.com/equitylens/equitylens/internal/store"
)

// Embedder turns chunk texts into vectors. EmbedBatch must return one vector
// per input in order; Dimension reports the model's output width.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Storage persists synthesized reports together with their embedded chunks
// and serves retrieval over the stored corpus.
type Storage struct {
	store    *store.Store
	embedder Embedder
	chunker  *Chunker
}

// Option customizes a Storage.
type Option func(*Storage)

// WithChunker overrides the default chunker.
func WithChunker(c *Chunker) Option {
	return func(s *Storage) {
		if c != nil {
			s.chunker = c
		}
	}
}

// NewStorage builds a report storage service over the given store and
// embedder.
func NewStorage(st *store.Store, embedder Embedder, opts ...Option) *Storage {
	s := &Storage{
		store:    st,
		embedder: embedder,
		chunker:  NewChunker(defaultChunkTokens, defaultOverlapTokens),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save chunks the report text, embeds every chunk, and persists the report
// row and all chunk rows in a single transaction. It returns the generated
// report identifier.
func (s *Storage) Save(ctx context.Context, ticker, tradeType, reportText string, metadata map[string]interface{}) (string, error) {
	ctx, finish := telemetry.StartSpan(ctx, "report.save")
	defer finish("ticker", ticker)

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", fmt.Errorf("report storage: ticker required")
	}
	if strings.TrimSpace(reportText) == "" {
		return "", fmt.Errorf("report storage: empty report text for %s", ticker)
	}

	reportID := uuid.NewString()
	records := s.chunker.Chunk(reportText, true)
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text
	}

	var vectors [][]float32
	if len(texts) > 0 {
		var err error
		vectors, err = s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return "", fmt.Errorf("report storage: embed chunks for %s: %w", ticker, err)
		}
		if len(vectors) != len(texts) {
			return "", fmt.Errorf("report storage: embedder returned %d vectors for %d chunks", len(vectors), len(texts))
		}
	}

	now := time.Now().UTC()
	rep := store.Report{
		ReportID:   reportID,
		Ticker:     ticker,
		TradeType:  tradeType,
		ReportText: reportText,
		Metadata:   metadata,
		CreatedAt:  now,
	}
	chunks := make([]store.Chunk, len(records))
	for i, rec := range records {
		chunks[i] = store.Chunk{
			ChunkID:    uuid.NewString(),
			ReportID:   reportID,
			ChunkText:  rec.Text,
			ChunkIndex: rec.Index,
			Embedding:  vectors[i],
			CreatedAt:  now,
		}
		if rec.Section != "" {
			chunks[i].Section.String = rec.Section
			chunks[i].Section.Valid = true
		}
	}
	if err := s.store.SaveReport(ctx, rep, chunks); err != nil {
		return "", fmt.Errorf("report storage: persist %s: %w", ticker, err)
	}
	telemetry.RecordChunksStored(len(chunks))
	common.Logger().Info("report stored",
		"report_id", reportID,
		"ticker", ticker,
		"trade_type", tradeType,
		"chunks", len(chunks))
	return reportID, nil
}

// Get returns a stored report by identifier.
func (s *Storage) Get(ctx context.Context, reportID string) (*store.Report, error) {
	return s.store.GetReport(ctx, reportID)
}

// ListByTicker returns the most recent reports for a ticker, newest first.
func (s *Storage) ListByTicker(ctx context.Context, ticker string, limit int) ([]store.Report, error) {
	return s.store.ReportsByTicker(ctx, ticker, limit)
}

// Chunks returns the ordered chunks of a report. Embeddings are included
// only when requested.
func (s *Storage) Chunks(ctx context.Context, reportID string, includeEmbeddings bool) ([]store.Chunk, error) {
	return s.store.ChunksByReport(ctx, reportID, includeEmbeddings)
}

// Delete removes a report and, through the schema's cascade, its chunks.
func (s *Storage) Delete(ctx context.Context, reportID string) error {
	return s.store.DeleteReport(ctx, reportID)
}
