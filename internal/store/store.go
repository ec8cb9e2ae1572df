package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/equitylens/equitylens/internal/common"
)

// ErrReportNotFound is returned when a report id does not exist.
var ErrReportNotFound = errors.New("report not found")

// Store wraps a pooled sqlx.DB connection to the report database.
type Store struct {
	db *sqlx.DB
}

// Open constructs a Store backed by the SQLite database at the provided path.
// The schema is migrated on first use.
func Open(path string) (*Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		cfg.Path = trimmed
	}
	return OpenWithConfig(cfg)
}

// OpenWithConfig constructs a Store using the provided configuration.
func OpenWithConfig(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path required")
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve sqlite path: %w", err)
	}
	busy := int(cfg.BusyTimeout / time.Millisecond)
	if busy <= 0 {
		busy = 5000
	}
	// journal_mode and foreign_keys must be set outside any transaction, so
	// they ride on the DSN and apply to every pooled connection.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(wal)&_pragma=foreign_keys(1)", abs, busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.BusyTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	common.Logger().Info("store: sqlite ready", "path", abs, "max_open_conns", cfg.MaxOpenConns)
	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS reports (
                report_id TEXT PRIMARY KEY,
                ticker TEXT NOT NULL,
                trade_type TEXT NOT NULL,
                report_text TEXT NOT NULL,
                metadata TEXT,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS report_chunks (
                chunk_id TEXT PRIMARY KEY,
                report_id TEXT NOT NULL,
                chunk_text TEXT NOT NULL,
                section TEXT,
                chunk_index INTEGER NOT NULL,
                embedding TEXT,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                FOREIGN KEY(report_id) REFERENCES reports(report_id) ON DELETE CASCADE,
                UNIQUE(report_id, chunk_index)
        );`,
	`CREATE INDEX IF NOT EXISTS idx_reports_ticker ON reports(ticker);`,
	`CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_chunks_report ON report_chunks(report_id);`,
	`CREATE INDEX IF NOT EXISTS idx_chunks_section ON report_chunks(section);`,
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SaveReport persists a report row together with all of its chunks in a
// single transaction. Either everything lands or nothing does.
func (s *Store) SaveReport(ctx context.Context, report Report, chunks []Chunk) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	if strings.TrimSpace(report.ReportID) == "" {
		return errors.New("report id required")
	}
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `
                        INSERT INTO reports (report_id, ticker, trade_type, report_text, metadata)
                        VALUES (:report_id, :ticker, :trade_type, :report_text, :metadata)`,
			report); err != nil {
			return fmt.Errorf("insert report: %w", err)
		}
		for i := range chunks {
			chunks[i].ReportID = report.ReportID
			if _, err := tx.NamedExecContext(ctx, `
                                INSERT INTO report_chunks (chunk_id, report_id, chunk_text, section, chunk_index, embedding)
                                VALUES (:chunk_id, :report_id, :chunk_text, :section, :chunk_index, :embedding)`,
				chunks[i]); err != nil {
				return fmt.Errorf("insert chunk %d: %w", chunks[i].ChunkIndex, err)
			}
		}
		return nil
	})
}

// GetReport retrieves a report by id. Returns ErrReportNotFound when absent.
func (s *Store) GetReport(ctx context.Context, reportID string) (*Report, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialised")
	}
	var report Report
	err := s.db.GetContext(ctx, &report, `
                SELECT report_id, ticker, trade_type, report_text, metadata, created_at
                FROM reports WHERE report_id = ?`, reportID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select report: %w", err)
	}
	return &report, nil
}

// ReportsByTicker lists the most recent reports for a ticker.
func (s *Store) ReportsByTicker(ctx context.Context, ticker string, limit int) ([]Report, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialised")
	}
	if limit <= 0 {
		limit = 10
	}
	reports := []Report{}
	err := s.db.SelectContext(ctx, &reports, `
                SELECT report_id, ticker, trade_type, report_text, metadata, created_at
                FROM reports WHERE ticker = ?
                ORDER BY created_at DESC LIMIT ?`, strings.ToUpper(strings.TrimSpace(ticker)), limit)
	if err != nil {
		return nil, fmt.Errorf("select reports by ticker: %w", err)
	}
	return reports, nil
}

// ChunksByReport returns all chunks for a report ordered by chunk index.
// When includeEmbeddings is false the embedding column is left unloaded.
func (s *Store) ChunksByReport(ctx context.Context, reportID string, includeEmbeddings bool) ([]Chunk, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialised")
	}
	columns := `chunk_id, report_id, chunk_text, section, chunk_index, created_at`
	if includeEmbeddings {
		columns = `chunk_id, report_id, chunk_text, section, chunk_index, embedding, created_at`
	}
	chunks := []Chunk{}
	query := fmt.Sprintf(`SELECT %s FROM report_chunks WHERE report_id = ? ORDER BY chunk_index ASC`, columns)
	if err := s.db.SelectContext(ctx, &chunks, query, reportID); err != nil {
		return nil, fmt.Errorf("select chunks: %w", err)
	}
	return chunks, nil
}

// DeleteReport removes a report; chunks cascade via the foreign key.
func (s *Store) DeleteReport(ctx context.Context, reportID string) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE report_id = ?`, reportID)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrReportNotFound
	}
	return nil
}
