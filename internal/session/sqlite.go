package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/berth-dev/intake/internal/interview"
	"github.com/berth-dev/intake/internal/topic"
)

// SQLiteStore keeps sessions in a SQLite database. Each Save replaces every
// row of that session; older sessions stay until Reset.
type SQLiteStore struct {
	db      *sql.DB
	catalog *topic.Catalog
}

// NewSQLiteStore opens the SQLite database at dbPath and creates tables if they don't exist.
func NewSQLiteStore(dbPath string, c *topic.Catalog) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection serializes writers.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStore{db: db, catalog: c}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		current_topic TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		topic_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		answer TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE TABLE IF NOT EXISTS topic_scores (
		session_id TEXT NOT NULL,
		topic_id TEXT NOT NULL,
		satisfaction INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (session_id, topic_id),
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Save replaces the stored copy of sess in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, sess *interview.Session) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	created, updated := sess.CreatedAt, sess.UpdatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	if updated.IsZero() {
		updated = created
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, current_topic, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET current_topic = excluded.current_topic, updated_at = excluded.updated_at`,
		sess.ID, string(sess.Current), created, updated,
	); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	for _, table := range []string{"messages", "answers", "topic_scores"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE session_id = ?`, sess.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, turn := range sess.Transcript {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, seq, role, content) VALUES (?, ?, ?, ?)`,
			sess.ID, i, string(turn.Role), turn.Content,
		); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	for _, id := range s.catalog.IDs() {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO topic_scores (session_id, topic_id, satisfaction) VALUES (?, ?, ?)`,
			sess.ID, string(id), sess.Scores[id],
		); err != nil {
			return fmt.Errorf("insert score: %w", err)
		}
		for i, answer := range sess.Answers.All(id) {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO answers (session_id, topic_id, seq, answer) VALUES (?, ?, ?, ?)`,
				sess.ID, string(id), i, answer,
			); err != nil {
				return fmt.Errorf("insert answer: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// Load returns the most recently updated session.
// Returns nil, nil if the database holds none.
func (s *SQLiteStore) Load(ctx context.Context) (*interview.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, current_topic, created_at, updated_at
		 FROM sessions
		 ORDER BY updated_at DESC
		 LIMIT 1`,
	)

	var (
		rec              Record
		created, updated time.Time
	)
	err := row.Scan(&rec.ID, &rec.CurrentTopic, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	rec.CreatedAt, rec.UpdatedAt = &created, &updated

	if rec.Messages, err = s.messages(ctx, rec.ID); err != nil {
		return nil, err
	}
	if rec.InterviewForm, rec.Memory, err = s.form(ctx, rec.ID); err != nil {
		return nil, err
	}

	return FromRecord(rec, s.catalog)
}

func (s *SQLiteStore) messages(ctx context.Context, sessionID string) ([]interview.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM messages WHERE session_id = ? ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var turns []interview.Turn
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		turns = append(turns, interview.Turn{Role: interview.Role(role), Content: content})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return turns, nil
}

func (s *SQLiteStore) form(ctx context.Context, sessionID string) (map[string]FormEntry, Memory, error) {
	form := make(map[string]FormEntry)
	mem := Memory{FieldMemory: make(map[string][]string), CurrentResponses: make(map[string]string)}

	rows, err := s.db.QueryContext(ctx,
		`SELECT topic_id, satisfaction FROM topic_scores WHERE session_id = ?`,
		sessionID,
	)
	if err != nil {
		return nil, mem, fmt.Errorf("query scores: %w", err)
	}
	for rows.Next() {
		var id string
		var score int
		if err := rows.Scan(&id, &score); err != nil {
			_ = rows.Close()
			return nil, mem, fmt.Errorf("scan score: %w", err)
		}
		form[id] = FormEntry{Satisfaction: score}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, mem, fmt.Errorf("iterate rows: %w", err)
	}
	_ = rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT topic_id, answer FROM answers WHERE session_id = ? ORDER BY topic_id, seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, mem, fmt.Errorf("query answers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id, answer string
		if err := rows.Scan(&id, &answer); err != nil {
			return nil, mem, fmt.Errorf("scan answer: %w", err)
		}
		mem.FieldMemory[id] = append(mem.FieldMemory[id], answer)
	}
	if err := rows.Err(); err != nil {
		return nil, mem, fmt.Errorf("iterate rows: %w", err)
	}

	return form, mem, nil
}

// Summary is one row of the session history.
type Summary struct {
	ID           string
	CurrentTopic string
	Completed    int
	Total        int
	UpdatedAt    time.Time
}

// ListSessions returns summaries of the most recent sessions.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.current_topic, s.updated_at,
		        COALESCE(SUM(CASE WHEN t.satisfaction >= ? THEN 1 ELSE 0 END), 0) AS completed,
		        COALESCE(COUNT(t.topic_id), 0) AS total
		 FROM sessions s
		 LEFT JOIN topic_scores t ON s.id = t.session_id
		 GROUP BY s.id
		 ORDER BY s.updated_at DESC
		 LIMIT ?`,
		interview.AdvanceThreshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.CurrentTopic, &sum.UpdatedAt, &sum.Completed, &sum.Total); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return summaries, nil
}

// Reset deletes every stored session.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	for _, table := range []string{"messages", "answers", "topic_scores", "sessions"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}
