package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsechat/relay/internal/models"
)

// PostgresStore persists envelopes in PostgreSQL, the production backend.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		sender_name TEXT NOT NULL DEFAULT '',
		sender_email TEXT NOT NULL DEFAULT '',
		sender_avatar TEXT NOT NULL DEFAULT '',
		sender_device TEXT NOT NULL DEFAULT '',
		recipient_id TEXT NOT NULL DEFAULT '',
		conversation_key TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL,
		file_url TEXT NOT NULL DEFAULT '',
		file_name TEXT NOT NULL DEFAULT '',
		file_type TEXT NOT NULL DEFAULT '',
		file_size BIGINT NOT NULL DEFAULT 0,
		ts BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_kind_ts ON messages(kind, ts);
	CREATE INDEX IF NOT EXISTS idx_messages_conv_ts ON messages(conversation_key, ts);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) Append(ctx context.Context, env *models.Envelope) error {
	var fileURL, fileName, fileType string
	var fileSize int64
	if env.Attachment != nil {
		fileURL = env.Attachment.URL
		fileName = env.Attachment.Name
		fileType = env.Attachment.Type
		fileSize = env.Attachment.Size
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (
			id, kind, sender_id, sender_name, sender_email, sender_avatar,
			sender_device, recipient_id, conversation_key, body,
			file_url, file_name, file_type, file_size, ts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, env.ID, string(env.Kind), env.Sender.ID, env.Sender.Name, env.Sender.Email,
		env.Sender.AvatarURL, env.Sender.Device, env.RecipientID, env.ConversationKey,
		env.Text, fileURL, fileName, fileType, fileSize, env.Timestamp)
	return err
}

func (s *PostgresStore) QueryByKind(ctx context.Context, kind models.Kind, limit int) ([]models.Envelope, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, sender_id, sender_name, sender_email, sender_avatar,
		       sender_device, recipient_id, conversation_key, body,
		       file_url, file_name, file_type, file_size, ts
		FROM messages WHERE kind = $1 ORDER BY ts ASC LIMIT $2
	`, string(kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEnvelopes(rows)
}

func (s *PostgresStore) QueryByConversationKey(ctx context.Context, key string, limit int) ([]models.Envelope, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, sender_id, sender_name, sender_email, sender_avatar,
		       sender_device, recipient_id, conversation_key, body,
		       file_url, file_name, file_type, file_size, ts
		FROM messages WHERE conversation_key = $1 ORDER BY ts ASC LIMIT $2
	`, key, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEnvelopes(rows)
}

func (s *PostgresStore) QueryConversationKeys(ctx context.Context, identityID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT conversation_key FROM messages
		WHERE kind = 'personal' AND (sender_id = $1 OR recipient_id = $1)
		ORDER BY conversation_key ASC
	`, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func collectEnvelopes(rows pgx.Rows) ([]models.Envelope, error) {
	envelopes := make([]models.Envelope, 0)
	for rows.Next() {
		var env models.Envelope
		var kind, fileURL, fileName, fileType string
		var fileSize int64
		if err := rows.Scan(
			&env.ID, &kind, &env.Sender.ID, &env.Sender.Name, &env.Sender.Email,
			&env.Sender.AvatarURL, &env.Sender.Device, &env.RecipientID,
			&env.ConversationKey, &env.Text,
			&fileURL, &fileName, &fileType, &fileSize, &env.Timestamp,
		); err != nil {
			return nil, err
		}
		env.Kind = models.Kind(kind)
		if fileURL != "" {
			env.Attachment = &models.Attachment{
				URL:  fileURL,
				Name: fileName,
				Type: fileType,
				Size: fileSize,
			}
		}
		envelopes = append(envelopes, env)
	}
	return envelopes, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
