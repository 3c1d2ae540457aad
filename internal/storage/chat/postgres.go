package chat

import (
	"context"
	"fmt"
	"slices"

	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id         UUID PRIMARY KEY,
	room_code  TEXT NOT NULL,
	sender     TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS chat_messages_room_idx ON chat_messages (room_code, created_at);
`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	log.Info().Str("module", "storage.chat").Str("driver", "postgres").Msg("chat store ready")
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Append(ctx context.Context, msg *domain.ChatMessage) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO chat_messages (id, room_code, sender, user_id, content, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			msg.ID, string(msg.RoomCode), msg.Sender, msg.UserID, msg.Content, msg.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert chat message: %w", err)
		}
		return nil
	})
}

// Recent returns up to limit messages; limit <= 0 returns them all.
func (s *PostgresStore) Recent(ctx context.Context, room domain.RoomCode, limit int) ([]domain.ChatMessage, error) {
	// LIMIT NULL is no limit
	var capped any
	if limit > 0 {
		capped = limit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, room_code, sender, user_id, content, created_at
		 FROM chat_messages WHERE room_code = $1
		 ORDER BY created_at DESC LIMIT $2`,
		string(room), capped,
	)
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ChatMessage, error) {
		var m domain.ChatMessage
		var code string
		err := row.Scan(&m.ID, &code, &m.Sender, &m.UserID, &m.Content, &m.Timestamp)
		m.RoomCode = domain.RoomCode(code)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan chat history: %w", err)
	}
	slices.Reverse(msgs)
	return msgs, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
