package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"hackertok/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const eventColumns = `id, type, post_id, ts, score, dwell_ms, author, domain, title, topics, url,
	comment_count, comment_id, comment_user, comment_content, comment_time`

// SQLiteStore keeps the event log in a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	insertEvent *sql.Stmt
}

// OpenSQLite opens (creating if needed) and migrates the database at path.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	// one connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := NewMigrationRunner(db).Run(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an already opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	var err error
	s.insertEvent, err = db.Prepare(`
		INSERT INTO events (type, post_id, ts, score, dwell_ms, author, domain, title, topics, url,
			comment_count, comment_id, comment_user, comment_content, comment_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("storage: prepare insert: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Append(ctx context.Context, ev *model.Event) error {
	topics := ev.Topics
	if topics == nil {
		topics = []string{}
	}
	tb, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("storage: encode topics: %w", err)
	}
	res, err := s.insertEvent.ExecContext(ctx,
		string(ev.Type), ev.PostID, ev.Timestamp, ev.Score, ev.DwellMs,
		ev.Author, ev.Domain, ev.Title, string(tb), ev.URL,
		ev.CommentCount, ev.CommentID, ev.CommentUser, ev.CommentContent, ev.CommentTime,
	)
	if err != nil {
		return fmt.Errorf("storage: insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("storage: insert event id: %w", err)
	}
	ev.ID = id
	return nil
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: query events: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var (
			ev     model.Event
			typ    string
			topics string
		)
		if err := rows.Scan(
			&ev.ID, &typ, &ev.PostID, &ev.Timestamp, &ev.Score, &ev.DwellMs,
			&ev.Author, &ev.Domain, &ev.Title, &topics, &ev.URL,
			&ev.CommentCount, &ev.CommentID, &ev.CommentUser, &ev.CommentContent, &ev.CommentTime,
		); err != nil {
			return nil, fmt.Errorf("storage: scan event: %w", err)
		}
		ev.Type = model.EventType(typ)
		if topics != "" && topics != "[]" {
			if err := json.Unmarshal([]byte(topics), &ev.Topics); err != nil {
				return nil, fmt.Errorf("storage: decode topics of event %d: %w", ev.ID, err)
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) All(ctx context.Context) ([]model.Event, error) {
	return s.query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY ts ASC, id ASC`)
}

func (s *SQLiteStore) OfType(ctx context.Context, t model.EventType) ([]model.Event, error) {
	return s.query(ctx, `SELECT `+eventColumns+` FROM events WHERE type = ? ORDER BY ts DESC, id DESC`, string(t))
}

func (s *SQLiteStore) SeenPostIDs(ctx context.Context) (map[int64]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT post_id FROM events`)
	if err != nil {
		return nil, fmt.Errorf("storage: query seen: %w", err)
	}
	defer rows.Close()
	seen := map[int64]struct{}{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: scan seen: %w", err)
		}
		seen[id] = struct{}{}
	}
	return seen, rows.Err()
}

func (s *SQLiteStore) exec(ctx context.Context, op, q string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("storage: %s: %w", op, err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) DeleteByPost(ctx context.Context, t model.EventType, postID int64) (int64, error) {
	return s.exec(ctx, "delete by post", `DELETE FROM events WHERE type = ? AND post_id = ?`, string(t), postID)
}

func (s *SQLiteStore) DeleteByComment(ctx context.Context, t model.EventType, commentID int64) (int64, error) {
	return s.exec(ctx, "delete by comment", `DELETE FROM events WHERE type = ? AND comment_id = ?`, string(t), commentID)
}

func (s *SQLiteStore) exists(ctx context.Context, q string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: exists: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) ExistsForPost(ctx context.Context, t model.EventType, postID int64) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM events WHERE type = ? AND post_id = ? LIMIT 1`, string(t), postID)
}

func (s *SQLiteStore) ExistsForComment(ctx context.Context, t model.EventType, commentID int64) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM events WHERE type = ? AND comment_id = ? LIMIT 1`, string(t), commentID)
}

func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time, maxEvents int) (int64, error) {
	var total int64
	if !olderThan.IsZero() {
		n, err := s.exec(ctx, "prune by age", `DELETE FROM events WHERE ts < ?`, olderThan.UnixMilli())
		if err != nil {
			return total, err
		}
		total += n
	}
	if maxEvents > 0 {
		n, err := s.exec(ctx, "prune by count", `
			DELETE FROM events WHERE id NOT IN (
				SELECT id FROM events ORDER BY ts DESC, id DESC LIMIT ?
			)`, maxEvents)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	if s.insertEvent != nil {
		s.insertEvent.Close()
	}
	return s.db.Close()
}
