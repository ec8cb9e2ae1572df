package api

import (
	"time"

	"github.com/equitylens/equitylens/internal/store"
	"github.com/equitylens/equitylens/internal/vector"
)

type researchRequest struct {
	Ticker    string `json:"ticker"`
	TradeType string `json:"trade_type"`
	Context   string `json:"context"`
}

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	Section   string `json:"section,omitempty"`
}

type chatResponse struct {
	Answer    string        `json:"answer"`
	SessionID string        `json:"session_id,omitempty"`
	Excerpts  []excerptView `json:"excerpts,omitempty"`
}

type excerptView struct {
	ChunkID string  `json:"chunk_id"`
	Section string  `json:"section,omitempty"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

func newExcerptViews(matches []vector.ScoredChunk) []excerptView {
	if len(matches) == 0 {
		return nil
	}
	views := make([]excerptView, 0, len(matches))
	for _, match := range matches {
		views = append(views, excerptView{
			ChunkID: match.Chunk.ChunkID,
			Section: match.Chunk.SectionName(),
			Text:    match.Chunk.ChunkText,
			Score:   match.Score,
		})
	}
	return views
}

type reportListResponse struct {
	Ticker  string         `json:"ticker"`
	Reports []store.Report `json:"reports"`
}

type chunkView struct {
	ChunkID    string    `json:"chunk_id"`
	ChunkText  string    `json:"chunk_text"`
	Section    string    `json:"section,omitempty"`
	ChunkIndex int       `json:"chunk_index"`
	Embedding  []float32 `json:"embedding,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type chunksResponse struct {
	ReportID string      `json:"report_id"`
	Chunks   []chunkView `json:"chunks"`
}

func newChunkView(c store.Chunk) chunkView {
	return chunkView{
		ChunkID:    c.ChunkID,
		ChunkText:  c.ChunkText,
		Section:    c.SectionName(),
		ChunkIndex: c.ChunkIndex,
		Embedding:  c.Embedding,
		CreatedAt:  c.CreatedAt,
	}
}
