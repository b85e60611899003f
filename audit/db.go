// Package audit keeps a SQLite log of the command lines a shell dispatched
// and ranks previously used arguments for completion.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stemshell"
)

// DefaultPath returns ~/.<shellName>/audit.db.
func DefaultPath(shellName string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "."+shellName, "audit.db"), nil
}

// Log is an invocation log. It implements stemshell.Recorder.
type Log struct {
	db      *sql.DB
	dbLock  sync.Mutex
	session Session
}

// Entry is one logged invocation.
type Entry struct {
	Session  string
	Command  string
	Args     []string
	Outcome  stemshell.Outcome
	Err      string
	Start    time.Time
	Duration time.Duration
}

// Open opens or creates the log at path and starts a new session in it.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for database: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// One connection keeps the session and its writes serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	l := &Log{db: db, session: newSession()}
	if err := l.initDB(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := l.startSession(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return l, nil
}

func (l *Log) initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		start_time INTEGER NOT NULL,
		end_time INTEGER,
		user_id INTEGER NOT NULL,
		hostname TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS invocations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		command TEXT NOT NULL,
		outcome TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		start_time INTEGER NOT NULL,
		duration INTEGER NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE TABLE IF NOT EXISTS invocation_arguments (
		invocation_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (invocation_id, position),
		FOREIGN KEY (invocation_id) REFERENCES invocations(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS arguments (
		command TEXT NOT NULL,
		text TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 1,
		last_used INTEGER NOT NULL,
		PRIMARY KEY (command, text)
	);

	CREATE INDEX IF NOT EXISTS idx_invocations_session ON invocations(session_id);
	CREATE INDEX IF NOT EXISTS idx_arguments_count ON arguments(command, count);
	`
	_, err := l.db.Exec(schema)
	return err
}

func (l *Log) startSession() error {
	_, err := l.db.Exec(
		"INSERT INTO sessions (id, start_time, user_id, hostname) VALUES (?, ?, ?, ?)",
		l.session.ID, l.session.StartTime.UnixNano(), l.session.UserID, l.session.Hostname,
	)
	return err
}

// Session returns the session this log writes to.
func (l *Log) Session() Session {
	return l.session
}

// Record stores inv. Arguments of successful invocations also feed the
// argument ranking used by Completer.
func (l *Log) Record(inv stemshell.Invocation) (err error) {
	l.dbLock.Lock()
	defer l.dbLock.Unlock()

	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	result, err := tx.Exec(
		`INSERT INTO invocations (session_id, command, outcome, error, start_time, duration)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.session.ID, inv.Command, string(inv.Outcome), inv.Err,
		inv.Start.UnixNano(), inv.Duration.Nanoseconds(),
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	for i, arg := range inv.Args {
		if _, err = tx.Exec(
			"INSERT INTO invocation_arguments (invocation_id, position, value) VALUES (?, ?, ?)",
			id, i, arg,
		); err != nil {
			return err
		}
	}

	if inv.Outcome == stemshell.OutcomeOK {
		now := time.Now().UnixNano()
		for _, arg := range inv.Args {
			if _, err = tx.Exec(
				`INSERT INTO arguments (command, text, last_used)
				VALUES (?, ?, ?)
				ON CONFLICT(command, text) DO UPDATE SET
				count=count+1, last_used=excluded.last_used`,
				inv.Command, arg, now,
			); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Recent returns up to limit of the latest invocations across all sessions,
// oldest first.
func (l *Log) Recent(limit int) ([]Entry, error) {
	l.dbLock.Lock()
	defer l.dbLock.Unlock()

	rows, err := l.db.Query(
		`SELECT id, session_id, command, outcome, error, start_time, duration
		FROM invocations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}

	var (
		entries []Entry
		ids     []int64
	)
	for rows.Next() {
		var (
			e              Entry
			id, start, dur int64
			outcome        string
		)
		if err := rows.Scan(&id, &e.Session, &e.Command, &outcome, &e.Err, &start, &dur); err != nil {
			rows.Close()
			return nil, err
		}
		e.Outcome = stemshell.Outcome(outcome)
		e.Start = time.Unix(0, start)
		e.Duration = time.Duration(dur)
		entries = append(entries, e)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i, id := range ids {
		args, err := l.arguments(id)
		if err != nil {
			return nil, err
		}
		entries[i].Args = args
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func (l *Log) arguments(invocationID int64) ([]string, error) {
	rows, err := l.db.Query(
		"SELECT value FROM invocation_arguments WHERE invocation_id = ? ORDER BY position",
		invocationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var args []string
	for rows.Next() {
		var arg string
		if err := rows.Scan(&arg); err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, rows.Err()
}

// ArgumentsByFrequency returns the arguments previously passed to command
// that start with prefix, most used first.
func (l *Log) ArgumentsByFrequency(command, prefix string) ([]string, error) {
	l.dbLock.Lock()
	defer l.dbLock.Unlock()

	rows, err := l.db.Query(
		`SELECT text, count, last_used FROM arguments WHERE command = ?`, command)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type ranked struct {
		text     string
		count    int64
		lastUsed int64
	}
	var found []ranked
	for rows.Next() {
		var r ranked
		if err := rows.Scan(&r.text, &r.count, &r.lastUsed); err != nil {
			return nil, err
		}
		if strings.HasPrefix(r.text, prefix) {
			found = append(found, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].count != found[j].count {
			return found[i].count > found[j].count
		}
		if found[i].lastUsed != found[j].lastUsed {
			return found[i].lastUsed > found[j].lastUsed
		}
		return found[i].text < found[j].text
	})

	args := make([]string, len(found))
	for i, r := range found {
		args[i] = r.text
	}
	return args, nil
}

// Completer proposes the arguments previously passed to command.
func (l *Log) Completer(command string) stemshell.Completer {
	return stemshell.CompleterFunc(func(_ []string, word string) []string {
		args, err := l.ArgumentsByFrequency(command, word)
		if err != nil {
			return nil
		}
		return args
	})
}

// Trim keeps only the maxArgsPerCommand most used arguments of each command.
func (l *Log) Trim(maxArgsPerCommand int) error {
	l.dbLock.Lock()
	defer l.dbLock.Unlock()

	_, err := l.db.Exec(`
		DELETE FROM arguments WHERE rowid IN (
			SELECT rowid FROM (
				SELECT rowid, ROW_NUMBER() OVER (
					PARTITION BY command ORDER BY count DESC, last_used DESC
				) AS rank FROM arguments
			) WHERE rank > ?
		)`, maxArgsPerCommand)
	return err
}

// Close ends the session and closes the database.
func (l *Log) Close() error {
	l.dbLock.Lock()
	defer l.dbLock.Unlock()

	_, err := l.db.Exec("UPDATE sessions SET end_time = ? WHERE id = ?", time.Now().UnixNano(), l.session.ID)
	if cerr := l.db.Close(); err == nil {
		err = cerr
	}
	return err
}
