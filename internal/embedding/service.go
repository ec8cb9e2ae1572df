package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/equitylens/equitylens/internal/common"
	"github.com/equitylens/equitylens/internal/common/telemetry"
)

const defaultBatchSize = 100

// ErrEmbeddingFailed wraps upstream embedding errors.
var ErrEmbeddingFailed = errors.New("embedding failed")

// Embedder is the minimal provider contract the service depends on.
type Embedder interface {
	Embed(ctx context.Context, input []string) ([][]float32, error)
}

// modelDimensions maps known embedding models to their vector dimension.
// Unknown models fall back to 1536.
var modelDimensions = map[string]int{
	"text-embedding-ada-002": 1536,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// Service converts text into fixed-dimension vectors, batching requests and
// degrading gracefully when individual items fail.
type Service struct {
	provider  Embedder
	model     string
	batchSize int
}

func NewService(provider Embedder) *Service {
	model := strings.TrimSpace(os.Getenv("OPENAI_EMBED_MODEL"))
	if model == "" {
		model = "text-embedding-3-small"
	}
	batchSize := defaultBatchSize
	if raw := strings.TrimSpace(os.Getenv("EMBED_BATCH_SIZE")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			batchSize = parsed
		}
	}
	return &Service{provider: provider, model: model, batchSize: batchSize}
}

// Dimension reports the vector length for the configured model.
func (s *Service) Dimension() int {
	if dim, ok := modelDimensions[s.model]; ok {
		return dim
	}
	return 1536
}

// EmbedOne embeds a single text.
func (s *Service) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if s == nil || s.provider == nil {
		return nil, errors.New("embedding provider not configured")
	}
	vectors, err := s.provider.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrEmbeddingFailed)
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in input order, partitioning into batches. A failed
// batch falls back to per-item calls; an item that still fails yields a
// zero vector so one bad chunk does not block storing the rest.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s == nil || s.provider == nil {
		return nil, errors.New("embedding provider not configured")
	}
	logger := common.Logger()
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]
		vectors, err := s.provider.Embed(ctx, batch)
		if err == nil && len(vectors) == len(batch) {
			out = append(out, vectors...)
			telemetry.RecordEmbeddingBatch(0)
			continue
		}
		if err != nil {
			logger.Warn("embedding: batch failed, retrying items individually", "batch_size", len(batch), "error", err)
		} else {
			logger.Warn("embedding: batch returned short response, retrying items individually", "expected", len(batch), "got", len(vectors))
		}
		fallbacks := 0
		for _, text := range batch {
			vec, itemErr := s.EmbedOne(ctx, text)
			if itemErr != nil {
				logger.Error("embedding: item failed, substituting zero vector", "error", itemErr)
				vec = make([]float32, s.Dimension())
				fallbacks++
			}
			out = append(out, vec)
		}
		telemetry.RecordEmbeddingBatch(fallbacks)
	}
	return out, nil
}
