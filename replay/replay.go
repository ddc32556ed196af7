// Package replay persists every dispatched action so a session can be
// inspected after the fact. Writes go through a buffered channel and a single
// writer goroutine; the decision tick never blocks on the database.
package replay

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Entry is one recorded action dispatch. TriggerID is empty for plan steps.
type Entry struct {
	UnitID    string
	Tick      uint64
	Action    string
	Params    map[string]any
	TriggerID string
}

type Log struct {
	db *sql.DB

	ch   chan Entry
	wg   sync.WaitGroup
	once sync.Once

	// mu orders in-flight sends against close(ch): Close takes the write
	// side, so no recorder can be mid-send when the channel closes.
	mu     sync.RWMutex
	closed bool
}

// Open creates or reuses the replay database at path.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	l := &Log{
		db: db,
		// High buffer: a trigger storm across many units must not stall the tick.
		ch: make(chan Entry, 65536),
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.loop()
	}()
	return l, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS actions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			unit_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			action TEXT NOT NULL,
			params_json TEXT NOT NULL,
			trigger_id TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_unit_tick ON actions(unit_id, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordAction implements rules.Recorder. Entries are dropped rather than
// blocking when the writer falls behind.
func (l *Log) RecordAction(unitID string, tick uint64, action string, params map[string]any, triggerID string) {
	if l == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.ch <- Entry{UnitID: unitID, Tick: tick, Action: action, Params: params, TriggerID: triggerID}:
	default:
	}
}

func (l *Log) loop() {
	for e := range l.ch {
		paramsJSON, err := json.Marshal(e.Params)
		if err != nil {
			paramsJSON = []byte("{}")
		}
		_, err = l.db.Exec(
			`INSERT INTO actions (unit_id, tick, action, params_json, trigger_id) VALUES (?, ?, ?, ?, ?)`,
			e.UnitID, e.Tick, e.Action, string(paramsJSON), e.TriggerID,
		)
		if err != nil {
			slog.Error("replay write failed", "unit", e.UnitID, "action", e.Action, "error", err)
		}
	}
}

// ActionsFor returns a unit's recorded actions in dispatch order. Intended
// for post-session inspection, not the hot path.
func (l *Log) ActionsFor(unitID string) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT unit_id, tick, action, params_json, trigger_id FROM actions WHERE unit_id = ? ORDER BY seq`,
		unitID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var paramsJSON string
		if err := rows.Scan(&e.UnitID, &e.Tick, &e.Action, &paramsJSON, &e.TriggerID); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(paramsJSON), &e.Params); err != nil {
			return nil, fmt.Errorf("decode params for %s@%d: %w", e.UnitID, e.Tick, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *Log) Close() error {
	var err error
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.ch)
		l.mu.Unlock()
		l.wg.Wait()
		err = l.db.Close()
	})
	return err
}
