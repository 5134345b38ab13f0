package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pulsechat/relay/internal/models"
)

// SQLiteStore persists envelopes in a local SQLite file. It is the default
// backend in development.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if necessary initializes) the database.
// If dbPath is empty, defaults to "./data/relay.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/relay.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		sender_name TEXT DEFAULT '',
		sender_email TEXT DEFAULT '',
		sender_avatar TEXT DEFAULT '',
		sender_device TEXT DEFAULT '',
		recipient_id TEXT DEFAULT '',
		conversation_key TEXT DEFAULT '',
		body TEXT NOT NULL,
		file_url TEXT DEFAULT '',
		file_name TEXT DEFAULT '',
		file_type TEXT DEFAULT '',
		file_size INTEGER DEFAULT 0,
		ts INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_kind_ts ON messages(kind, ts);
	CREATE INDEX IF NOT EXISTS idx_messages_conv_ts ON messages(conversation_key, ts);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteStore) Append(ctx context.Context, env *models.Envelope) error {
	var fileURL, fileName, fileType string
	var fileSize int64
	if env.Attachment != nil {
		fileURL = env.Attachment.URL
		fileName = env.Attachment.Name
		fileType = env.Attachment.Type
		fileSize = env.Attachment.Size
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (
			id, kind, sender_id, sender_name, sender_email, sender_avatar,
			sender_device, recipient_id, conversation_key, body,
			file_url, file_name, file_type, file_size, ts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, env.ID, string(env.Kind), env.Sender.ID, env.Sender.Name, env.Sender.Email,
		env.Sender.AvatarURL, env.Sender.Device, env.RecipientID, env.ConversationKey,
		env.Text, fileURL, fileName, fileType, fileSize, env.Timestamp)
	return err
}

func (s *SQLiteStore) QueryByKind(ctx context.Context, kind models.Kind, limit int) ([]models.Envelope, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, sender_id, sender_name, sender_email, sender_avatar,
		       sender_device, recipient_id, conversation_key, body,
		       file_url, file_name, file_type, file_size, ts
		FROM messages WHERE kind = ? ORDER BY ts ASC LIMIT ?
	`, string(kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEnvelopes(rows)
}

func (s *SQLiteStore) QueryByConversationKey(ctx context.Context, key string, limit int) ([]models.Envelope, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, sender_id, sender_name, sender_email, sender_avatar,
		       sender_device, recipient_id, conversation_key, body,
		       file_url, file_name, file_type, file_size, ts
		FROM messages WHERE conversation_key = ? ORDER BY ts ASC LIMIT ?
	`, key, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEnvelopes(rows)
}

func (s *SQLiteStore) QueryConversationKeys(ctx context.Context, identityID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT conversation_key FROM messages
		WHERE kind = 'personal' AND (sender_id = ? OR recipient_id = ?)
		ORDER BY conversation_key ASC
	`, identityID, identityID)
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

func scanEnvelopes(rows *sql.Rows) ([]models.Envelope, error) {
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

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}
