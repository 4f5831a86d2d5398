// Package sink persists converted messages so the replay server can query
// them by time range.
package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/pkg/errors"

	"github.com/kyabatsu/chat-renderer/internal/core"
	"github.com/kyabatsu/chat-renderer/internal/format"
)

const schema = `CREATE TABLE IF NOT EXISTS messages (
  source_format TEXT NOT NULL,
  id TEXT NOT NULL,
  timestamp_ms INTEGER NOT NULL,
  type TEXT NOT NULL,
  author_id TEXT NOT NULL DEFAULT '',
  author_name TEXT NOT NULL DEFAULT '',
  raw TEXT NOT NULL DEFAULT '',
  payload_json TEXT NOT NULL,
  PRIMARY KEY (source_format, id)
);
CREATE INDEX IF NOT EXISTS idx_messages_ts ON messages (timestamp_ms);`

const defaultListLimit = 100

// SQLiteSink stores unified messages in a SQLite database. Message ids are
// only unique per source format, so the key is (source_format, id).
type SQLiteSink struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "apply schema")
	}
	if _, err := db.Exec(`PRAGMA journal_mode=wal;`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "set WAL")
	}
	ApplySQLitePragmas(context.Background(), db)
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Close() error { return s.db.Close() }

func (s *SQLiteSink) Ping() error { return s.db.Ping() }

func (s *SQLiteSink) String() string {
	return fmt.Sprintf("SQLiteSink{%p}", s.db)
}

// Write upserts one message. Re-converting the same dump is a no-op.
func (s *SQLiteSink) Write(source format.Format, msg core.UnifiedMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encode message")
	}
	const q = `INSERT INTO messages (source_format, id, timestamp_ms, type, author_id, author_name, raw, payload_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source_format, id) DO NOTHING;`
	_, err = s.db.Exec(q, source.String(), msg.ID, msg.TimestampMS, string(msg.Type),
		msg.Author.ID, msg.Author.Name, msg.Content.Raw, string(payload))
	return errors.Wrap(err, "insert message")
}

// Filters narrows message lookups.
type Filters struct {
	FromMS *int64
	ToMS   *int64
	Types  []string
	Limit  int
}

// Count returns the number of stored messages matching the filters.
func (s *SQLiteSink) Count(ctx context.Context, filters Filters) (int64, error) {
	query, args := buildMessageQuery(filters, true)
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count")
	}
	return n, nil
}

// List returns matching messages in ascending timestamp order, decoded from
// their stored payloads.
func (s *SQLiteSink) List(ctx context.Context, filters Filters) ([]core.UnifiedMessage, error) {
	query, args := buildMessageQuery(filters, false)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list messages")
	}
	defer rows.Close()

	var out []core.UnifiedMessage
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.Wrap(err, "scan message")
		}
		var msg core.UnifiedMessage
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return nil, errors.Wrap(err, "decode message")
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate messages")
	}
	return out, nil
}

func buildMessageQuery(filters Filters, count bool) (string, []any) {
	var builder strings.Builder
	if count {
		builder.WriteString("SELECT COUNT(*) FROM messages")
	} else {
		builder.WriteString("SELECT payload_json FROM messages")
	}

	var (
		conditions []string
		args       []any
	)

	if filters.FromMS != nil {
		conditions = append(conditions, "timestamp_ms >= ?")
		args = append(args, *filters.FromMS)
	}
	if filters.ToMS != nil {
		conditions = append(conditions, "timestamp_ms <= ?")
		args = append(args, *filters.ToMS)
	}
	if len(filters.Types) > 0 {
		placeholders := make([]string, 0, len(filters.Types))
		for _, t := range filters.Types {
			placeholders = append(placeholders, "?")
			args = append(args, t)
		}
		conditions = append(conditions, fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ",")))
	}

	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}

	if !count {
		builder.WriteString(" ORDER BY timestamp_ms ASC")
		limit := filters.Limit
		if limit <= 0 {
			limit = defaultListLimit
		}
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	builder.WriteString(";")
	return builder.String(), args
}
