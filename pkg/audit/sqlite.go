package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"halcyon-ai/promptgate/pkg/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit (
	id                TEXT PRIMARY KEY,
	request_id        TEXT NOT NULL,
	timestamp         DATETIME NOT NULL,
	model             TEXT NOT NULL,
	prompt            TEXT,
	mode              TEXT NOT NULL,
	status            TEXT NOT NULL,
	status_code       INTEGER NOT NULL,
	error_kind        TEXT,
	latency_ms        INTEGER NOT NULL,
	prompt_tokens     INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	total_tokens      INTEGER NOT NULL DEFAULT 0,
	chunks            INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_request_id ON audit(request_id);
`

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *config.AuditSQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database, applies pragmas, and creates the
// schema if it does not exist.
func NewSQLiteStorage(cfg *config.AuditSQLiteConfig) (*SQLiteStorage, error) {
	logger := slog.Default().With("component", "audit.sqlite")

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: cfg,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("audit storage initialized",
		"path", cfg.Path,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}

	return nil
}

// Store persists an audit record.
func (s *SQLiteStorage) Store(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO audit (
			id, request_id, timestamp, model, prompt, mode,
			status, status_code, error_kind, latency_ms,
			prompt_tokens, completion_tokens, total_tokens, chunks
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var promptVal, errorKindVal interface{}
	if record.Prompt != "" {
		promptVal = record.Prompt
	}
	if record.ErrorKind != "" {
		errorKindVal = record.ErrorKind
	}

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.RequestID, record.Timestamp, record.Model, promptVal, record.Mode,
		record.Status, record.StatusCode, errorKindVal, record.LatencyMS,
		record.PromptTokens, record.CompletionTokens, record.TotalTokens, record.Chunks,
	)
	if err != nil {
		return NewStorageError("sqlite", "store", err)
	}

	return nil
}

// DeleteBefore removes records with a timestamp before cutoff.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM audit WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, NewStorageError("sqlite", "delete_before", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "rows_affected", err)
	}

	return deleted, nil
}

// Count returns the total number of audit records.
func (s *SQLiteStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit").Scan(&count)
	if err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}

	return count, nil
}

// DeleteOldest removes the n oldest records by timestamp.
func (s *SQLiteStorage) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	query := `
		DELETE FROM audit WHERE id IN (
			SELECT id FROM audit ORDER BY timestamp ASC LIMIT ?
		)
	`

	result, err := s.db.ExecContext(ctx, query, n)
	if err != nil {
		return 0, NewStorageError("sqlite", "delete_oldest", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "rows_affected", err)
	}

	return deleted, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
