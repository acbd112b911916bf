package trace

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists trace records to SQLite, one row per answered question.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the trace database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS traces (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		question TEXT NOT NULL,
		intent_analysis TEXT,
		api_calls TEXT,
		data_summary TEXT,
		final_answer TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_traces_timestamp ON traces(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save persists one trace record.
func (s *Store) Save(ctx context.Context, rec Record) error {
	analysis, err := json.Marshal(rec.IntentAnalysis)
	if err != nil {
		return fmt.Errorf("marshaling intent analysis: %w", err)
	}
	calls, err := json.Marshal(rec.APICalls)
	if err != nil {
		return fmt.Errorf("marshaling api calls: %w", err)
	}
	summary, err := json.Marshal(rec.DataSummary)
	if err != nil {
		return fmt.Errorf("marshaling data summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO traces (timestamp, question, intent_analysis, api_calls, data_summary, final_answer)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Timestamp, rec.Question, string(analysis), string(calls), string(summary), rec.FinalAnswer)
	if err != nil {
		return fmt.Errorf("inserting trace: %w", err)
	}
	return nil
}

// Recent returns the most recent trace records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, question, intent_analysis, api_calls, data_summary, final_answer
		FROM traces ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying traces: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var analysis, calls, summary sql.NullString
		if err := rows.Scan(&rec.Timestamp, &rec.Question, &analysis, &calls, &summary, &rec.FinalAnswer); err != nil {
			return nil, fmt.Errorf("scanning trace: %w", err)
		}
		if analysis.Valid {
			_ = json.Unmarshal([]byte(analysis.String), &rec.IntentAnalysis)
		}
		if calls.Valid {
			_ = json.Unmarshal([]byte(calls.String), &rec.APICalls)
		}
		if summary.Valid {
			_ = json.Unmarshal([]byte(summary.String), &rec.DataSummary)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
