package session

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists session transcripts to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite session store.
// The path should be a file path (e.g., "./sessions.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS turns (
			session_id TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			guardrail_triggered INTEGER NOT NULL DEFAULT 0,
			messages BLOB NOT NULL,
			PRIMARY KEY (session_id, sequence)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_turns_session_id
		ON turns(session_id)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(sessionID string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	data, err := marshalMessages(turn.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}

	triggered := 0
	if turn.GuardrailTriggered {
		triggered = 1
	}

	// Sequence is max + 1 for the session
	_, err = s.db.Exec(`
		INSERT INTO turns (session_id, sequence, timestamp, guardrail_triggered, messages)
		VALUES (
			?,
			COALESCE((SELECT MAX(sequence) FROM turns WHERE session_id = ?), 0) + 1,
			?, ?, ?
		)
	`, sessionID, sessionID, time.Now().UTC().Format(time.RFC3339Nano), triggered, data)

	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// Turns implements Store.
func (s *SQLiteStore) Turns(sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT sequence, timestamp, guardrail_triggered, messages
		FROM turns
		WHERE session_id = ?
		ORDER BY sequence
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var turn Turn
		var timestamp string
		var triggered int
		var data []byte
		if err := rows.Scan(&turn.Sequence, &timestamp, &triggered, &data); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turn.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		turn.GuardrailTriggered = triggered != 0
		turn.Messages, err = unmarshalMessages(data)
		if err != nil {
			return nil, fmt.Errorf("unmarshal messages: %w", err)
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	return turns, nil
}

// History implements Store.
func (s *SQLiteStore) History(sessionID string) ([]llm.Message, error) {
	turns, err := s.Turns(sessionID)
	if err != nil {
		return nil, err
	}

	var history []llm.Message
	for _, turn := range turns {
		history = append(history, turn.Messages...)
	}
	return history, nil
}

// Sessions implements Store.
func (s *SQLiteStore) Sessions() ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT session_id, COUNT(*), MAX(timestamp)
		FROM turns
		GROUP BY session_id
		ORDER BY MAX(timestamp)
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		var timestamp string
		if err := rows.Scan(&info.SessionID, &info.Turns, &timestamp); err != nil {
			return nil, fmt.Errorf("scan session info: %w", err)
		}
		info.LastActivity, _ = time.Parse(time.RFC3339Nano, timestamp)
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return infos, nil
}

// DeleteSession implements Store.
func (s *SQLiteStore) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		DELETE FROM turns WHERE session_id = ?
	`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
