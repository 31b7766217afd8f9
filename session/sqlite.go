package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gantryai/gantry/core"
)

// SQLiteStore persists sessions and their event history in a sqlite database.
// Sessions row holds the state blob and the next sequence counter; events are
// one row per history entry with the full event JSON alongside indexed
// columns. A store-level mutex keeps the get-or-create and append paths
// race-free within the process, matching the in-memory store's guarantees.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLite opens (creating if needed) a sqlite-backed session store at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	ddl := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA foreign_keys=ON;`,
		`CREATE TABLE IF NOT EXISTS sessions (
			app TEXT NOT NULL,
			user TEXT NOT NULL,
			session TEXT NOT NULL,
			state_json TEXT NOT NULL,
			next_seq INTEGER NOT NULL,
			created TEXT NOT NULL,
			updated TEXT NOT NULL,
			PRIMARY KEY (app, user, session)
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			app TEXT NOT NULL,
			user TEXT NOT NULL,
			session TEXT NOT NULL,
			seq INTEGER NOT NULL,
			event_id TEXT NOT NULL,
			turn_id TEXT NOT NULL,
			author TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			PRIMARY KEY (app, user, session, seq),
			FOREIGN KEY (app, user, session) REFERENCES sessions(app, user, session)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_turn ON events(turn_id);`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetOrNone implements core.SessionStore.
func (s *SQLiteStore) GetOrNone(key core.Key) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(key)
}

func (s *SQLiteStore) load(key core.Key) (*core.Session, error) {
	row := s.db.QueryRow(`
		SELECT state_json, created, updated
		FROM sessions
		WHERE app = ? AND user = ? AND session = ?`,
		key.App, key.User, key.Session,
	)

	var stateJSON, created, updated string
	err := row.Scan(&stateJSON, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", key, err)
	}

	var state map[string]any
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("decode state for %s: %w", key, err)
	}

	sess := core.NewSession(key, state)
	sess.Created, _ = time.Parse(time.RFC3339Nano, created)
	sess.Updated, _ = time.Parse(time.RFC3339Nano, updated)

	rows, err := s.db.Query(`
		SELECT payload_json
		FROM events
		WHERE app = ? AND user = ? AND session = ?
		ORDER BY seq ASC`,
		key.App, key.User, key.Session,
	)
	if err != nil {
		return nil, fmt.Errorf("load events for %s: %w", key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var ev core.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("decode event for %s: %w", key, err)
		}
		sess.AddEvent(ev)
	}
	return sess, rows.Err()
}

// Create implements core.SessionStore.
func (s *SQLiteStore) Create(key core.Key, initialState map[string]any) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if initialState == nil {
		initialState = map[string]any{}
	}
	stateJSON, err := json.Marshal(initialState)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.Exec(`
		INSERT INTO sessions (app, user, session, state_json, next_seq, created, updated)
		SELECT ?, ?, ?, ?, 1, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM sessions WHERE app = ? AND user = ? AND session = ?
		)`,
		key.App, key.User, key.Session, string(stateJSON), now, now,
		key.App, key.User, key.Session,
	)
	if err != nil {
		return nil, fmt.Errorf("create session %s: %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, core.NewTurnError(core.CodeSessionAlreadyExists, "session %s already exists", key)
	}
	return s.load(key)
}

// AppendEvent implements core.SessionStore. The sequence number is assigned
// from the session's counter inside a transaction.
func (s *SQLiteStore) AppendEvent(key core.Key, ev core.Event) (core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return core.Event{}, err
	}
	defer tx.Rollback()

	var nextSeq int64
	err = tx.QueryRow(`
		SELECT next_seq FROM sessions
		WHERE app = ? AND user = ? AND session = ?`,
		key.App, key.User, key.Session,
	).Scan(&nextSeq)
	if err == sql.ErrNoRows {
		return core.Event{}, &NotFoundError{Key: key}
	}
	if err != nil {
		return core.Event{}, err
	}

	ev.Seq = nextSeq
	payload, err := json.Marshal(ev)
	if err != nil {
		return core.Event{}, fmt.Errorf("encode event: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.Exec(`
		INSERT INTO events (app, user, session, seq, event_id, turn_id, author, timestamp, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key.App, key.User, key.Session, ev.Seq, ev.ID, ev.TurnID, ev.Author,
		ev.Timestamp.UTC().Format(time.RFC3339Nano), string(payload),
	); err != nil {
		return core.Event{}, fmt.Errorf("append event to %s: %w", key, err)
	}
	if _, err := tx.Exec(`
		UPDATE sessions SET next_seq = ?, updated = ?
		WHERE app = ? AND user = ? AND session = ?`,
		nextSeq+1, now, key.App, key.User, key.Session,
	); err != nil {
		return core.Event{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Event{}, err
	}
	return ev, nil
}

// ApplyDelta implements core.SessionStore with a read-modify-write of the
// state blob under the store mutex.
func (s *SQLiteStore) ApplyDelta(key core.Key, delta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stateJSON string
	err := s.db.QueryRow(`
		SELECT state_json FROM sessions
		WHERE app = ? AND user = ? AND session = ?`,
		key.App, key.User, key.Session,
	).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return &NotFoundError{Key: key}
	}
	if err != nil {
		return err
	}

	var state map[string]any
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return fmt.Errorf("decode state for %s: %w", key, err)
	}
	for k, v := range delta {
		state[k] = v
	}
	merged, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE sessions SET state_json = ?, updated = ?
		WHERE app = ? AND user = ? AND session = ?`,
		string(merged), time.Now().UTC().Format(time.RFC3339Nano),
		key.App, key.User, key.Session,
	)
	return err
}
