package store

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Report is a persisted synthesized research report.
type Report struct {
	ReportID   string    `db:"report_id" json:"report_id"`
	Ticker     string    `db:"ticker" json:"ticker"`
	TradeType  string    `db:"trade_type" json:"trade_type"`
	ReportText string    `db:"report_text" json:"report_text"`
	Metadata   Metadata  `db:"metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Chunk is one bounded, possibly overlapping segment of a report, carrying
// its embedding for retrieval. ChunkIndex defines read-back order and is
// unique and dense per report.
type Chunk struct {
	ChunkID    string         `db:"chunk_id" json:"chunk_id"`
	ReportID   string         `db:"report_id" json:"report_id"`
	ChunkText  string         `db:"chunk_text" json:"chunk_text"`
	Section    sql.NullString `db:"section" json:"-"`
	ChunkIndex int            `db:"chunk_index" json:"chunk_index"`
	Embedding  Vector         `db:"embedding" json:"embedding,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// SectionName returns the chunk's section label, or empty when unset.
func (c Chunk) SectionName() string {
	if c.Section.Valid {
		return c.Section.String
	}
	return ""
}

// Metadata is a free-form JSON object column.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata column type %T", src)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

// Vector is an embedding stored as a JSON float array.
type Vector []float32

func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal([]float32(v))
	if err != nil {
		return nil, fmt.Errorf("marshal embedding: %w", err)
	}
	return string(data), nil
}

func (v *Vector) Scan(src interface{}) error {
	if src == nil {
		*v = nil
		return nil
	}
	var data []byte
	switch value := src.(type) {
	case []byte:
		data = value
	case string:
		data = []byte(value)
	default:
		return fmt.Errorf("unsupported embedding column type %T", src)
	}
	if len(data) == 0 {
		*v = nil
		return nil
	}
	return json.Unmarshal(data, (*[]float32)(v))
}
