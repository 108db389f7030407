// Package store persists evidence sessions in SQLite, so a set of
// assertions entered in the console can be reloaded, listed, and
// re-evaluated after the rule file changes.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"credence/internal/evidence"
	"credence/internal/rules"
)

// ErrNotFound is returned when no session matches the given ID or
// name.
var ErrNotFound = errors.New("session not found")

// Session is a named evidence set saved for later, together with the
// conclusions it produced when last evaluated. RulesHash pins the rule
// file content the conclusions came from, so stale sessions can be
// flagged after an edit.
type Session struct {
	ID         string
	Name       string
	RulesPath  string
	RulesHash  string
	Assertions []evidence.Assertion
	Results    map[rules.Condition]float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store is a SQLite-backed session store.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	path   string
	logger *zap.Logger
}

// Open initializes the store at path, creating the file and schema as
// needed. A nil logger is replaced with a no-op one.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		rules_path TEXT NOT NULL,
		rules_hash TEXT NOT NULL,
		results_json TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS assertions (
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		subject TEXT NOT NULL,
		state TEXT NOT NULL,
		cf REAL NOT NULL,
		PRIMARY KEY (session_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_assertions_session ON assertions(session_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

type storedResult struct {
	Subject string  `json:"subject"`
	State   string  `json:"state"`
	CF      float64 `json:"cf"`
}

func encodeResults(m map[rules.Condition]float64) (string, error) {
	out := make([]storedResult, 0, len(m))
	for c, v := range m {
		out = append(out, storedResult{Subject: c.Subject, State: c.State, CF: v})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}
	return string(data), nil
}

func decodeResults(data string) (map[rules.Condition]float64, error) {
	var in []storedResult
	if err := json.Unmarshal([]byte(data), &in); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}
	out := make(map[rules.Condition]float64, len(in))
	for _, r := range in {
		out[rules.Condition{Subject: r.Subject, State: r.State}] = r.CF
	}
	return out, nil
}

// Save writes the session and its assertions. A session with an empty
// ID gets one; saving under an existing name updates that session in
// place, keeping its ID and creation time.
func (s *Store) Save(sess *Session) error {
	if sess.Name == "" {
		return fmt.Errorf("session needs a name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		var existing string
		err := s.db.QueryRow("SELECT id FROM sessions WHERE name = ?", sess.Name).Scan(&existing)
		switch {
		case err == nil:
			sess.ID = existing
		case errors.Is(err, sql.ErrNoRows):
			sess.ID = uuid.NewString()
		default:
			return fmt.Errorf("failed to look up session name: %w", err)
		}
	}

	resultsJSON, err := encodeResults(sess.Results)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sessions (id, name, rules_path, rules_hash, results_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			rules_path = excluded.rules_path,
			rules_hash = excluded.rules_hash,
			results_json = excluded.results_json,
			updated_at = excluded.updated_at`,
		sess.ID, sess.Name, sess.RulesPath, sess.RulesHash, resultsJSON, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM assertions WHERE session_id = ?", sess.ID); err != nil {
		return fmt.Errorf("failed to clear assertions: %w", err)
	}
	for i, a := range sess.Assertions {
		_, err := tx.Exec(
			"INSERT INTO assertions (session_id, position, subject, state, cf) VALUES (?, ?, ?, ?, ?)",
			sess.ID, i, a.Cond.Subject, a.Cond.State, a.CF,
		)
		if err != nil {
			return fmt.Errorf("failed to save assertion %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}

	s.logger.Debug("session saved",
		zap.String("id", sess.ID),
		zap.String("name", sess.Name),
		zap.Int("assertions", len(sess.Assertions)))
	return nil
}

// Get loads one session by ID or, failing that, by name.
func (s *Store) Get(idOrName string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.scanSession(s.db.QueryRow(`
		SELECT id, name, rules_path, rules_hash, results_json, created_at, updated_at
		FROM sessions WHERE id = ? OR name = ?`, idOrName, idOrName))
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT subject, state, cf FROM assertions
		WHERE session_id = ? ORDER BY position`, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assertions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var subject, state string
		var v float64
		if err := rows.Scan(&subject, &state, &v); err != nil {
			return nil, fmt.Errorf("failed to scan assertion: %w", err)
		}
		sess.Assertions = append(sess.Assertions, evidence.Assertion{
			Cond: rules.Condition{Subject: subject, State: state},
			CF:   v,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assertions: %w", err)
	}
	return sess, nil
}

func (s *Store) scanSession(row *sql.Row) (*Session, error) {
	var sess Session
	var resultsJSON string
	err := row.Scan(&sess.ID, &sess.Name, &sess.RulesPath, &sess.RulesHash,
		&resultsJSON, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	if sess.Results, err = decodeResults(resultsJSON); err != nil {
		return nil, err
	}
	return &sess, nil
}

// List returns all sessions without their assertions, newest first.
func (s *Store) List() ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, name, rules_path, rules_hash, results_json, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		var sess Session
		var resultsJSON string
		if err := rows.Scan(&sess.ID, &sess.Name, &sess.RulesPath, &sess.RulesHash,
			&resultsJSON, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if sess.Results, err = decodeResults(resultsJSON); err != nil {
			return nil, err
		}
		out = append(out, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}
	return out, nil
}

// Delete removes a session by ID or name.
func (s *Store) Delete(idOrName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM sessions WHERE id = ? OR name = ?", idOrName, idOrName)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	// Assertions are keyed by the now-deleted ID either way; sweep them.
	if _, err := s.db.Exec(
		"DELETE FROM assertions WHERE session_id NOT IN (SELECT id FROM sessions)"); err != nil {
		return fmt.Errorf("failed to sweep assertions: %w", err)
	}
	return nil
}

// Count returns the number of stored sessions.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}
