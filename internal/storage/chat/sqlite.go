package chat

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id         TEXT PRIMARY KEY,
	room_code  TEXT NOT NULL,
	sender     TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS chat_messages_room_idx ON chat_messages (room_code, created_at);
`

// SQLiteStore is the single-file store for small deployments.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	log.Info().Str("module", "storage.chat").Str("driver", "sqlite").Str("path", path).Msg("chat store ready")
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, msg *domain.ChatMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, room_code, sender, user_id, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, string(msg.RoomCode), msg.Sender, msg.UserID, msg.Content, msg.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// Recent returns up to limit messages; limit <= 0 returns them all.
func (s *SQLiteStore) Recent(ctx context.Context, room domain.RoomCode, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		// a negative LIMIT is no limit in SQLite
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room_code, sender, user_id, content, created_at
		 FROM chat_messages WHERE room_code = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		string(room), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}
	defer rows.Close()

	var msgs []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var code string
		var nanos int64
		if err := rows.Scan(&m.ID, &code, &m.Sender, &m.UserID, &m.Content, &nanos); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.RoomCode = domain.RoomCode(code)
		m.Timestamp = time.Unix(0, nanos).UTC()
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
