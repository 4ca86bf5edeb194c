package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ovasilenko/synchro/internal/domain"
	"github.com/ovasilenko/synchro/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS device_sessions (
		device_id TEXT PRIMARY KEY,
		selected_user_id TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journal (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		op TEXT NOT NULL,
		entry_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SelectedUser returns the user selected on a device, "" if none.
func (s *SQLiteStore) SelectedUser(ctx context.Context, deviceID string) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT selected_user_id FROM device_sessions WHERE device_id = ?`, deviceID)

	var userID string
	err := row.Scan(&userID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("scan device session: %w", err)
	}
	return userID, nil
}

// SetSelectedUser records the device's selected user.
func (s *SQLiteStore) SetSelectedUser(ctx context.Context, deviceID, userID string) error {
	query := `
	INSERT INTO device_sessions (device_id, selected_user_id, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(device_id) DO UPDATE SET
		selected_user_id = excluded.selected_user_id,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query, deviceID, userID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert device session: %w", err)
	}
	return nil
}

// AppendJournal appends one mutation entry, retrying on transient SQLite
// concurrency errors.
func (s *SQLiteStore) AppendJournal(ctx context.Context, entry domain.JournalEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}

	maxRetries := 3
	baseDelay := 50 * time.Millisecond
	for i := 0; i < maxRetries; i++ {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO journal (op, entry_json, created_at) VALUES (?, ?, ?)`,
			string(entry.Op), string(payload), time.Now().Unix())
		if err == nil {
			return nil
		}
		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			time.Sleep(baseDelay * time.Duration(1<<i))
			continue
		}
		break
	}
	return fmt.Errorf("append journal entry: %w", err)
}

// LoadJournal returns all journal entries in append order.
func (s *SQLiteStore) LoadJournal(ctx context.Context) ([]domain.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entry_json FROM journal ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		var entry domain.JournalEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal rows: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
