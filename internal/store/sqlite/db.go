package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database with the given DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	// SQLite allows a single writer; funnel all access through one
	// connection so concurrent transactions queue instead of failing busy.
	db.SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates the schema. All statements are idempotent so this can run
// on every startup.
func Migrate(db *sql.DB) error {
	stmts := []string{
		// Users are provisioned by the identity layer; external_id carries
		// the provider's opaque user identifier.
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			external_id VARCHAR(64) UNIQUE NOT NULL,
			email VARCHAR(100) NOT NULL,
			name VARCHAR(100) DEFAULT 'Unknown',
			image TEXT DEFAULT '',
			provider VARCHAR(20) DEFAULT 'oauth',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		// peer_key is the unordered participant pair ("min_max"); its UNIQUE
		// constraint is what makes find-or-create race-safe.
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY,
			peer_key VARCHAR(50) UNIQUE NOT NULL,
			last_sender_id INTEGER DEFAULT NULL,
			last_content TEXT DEFAULT NULL,
			last_timestamp DATETIME DEFAULT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS conversation_participants (
			user_id INTEGER NOT NULL,
			conversation_id INTEGER NOT NULL,
			joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, conversation_id),
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (conversation_id) REFERENCES conversations(id)
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY,
			conversation_id INTEGER NOT NULL,
			sender_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			message_type VARCHAR(10) NOT NULL DEFAULT 'text',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id),
			FOREIGN KEY (sender_id) REFERENCES users(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_users_external_id ON users(external_id);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_conv_participants_user ON conversation_participants(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_conv_participants_conv ON conversation_participants(conversation_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_id ON messages(conversation_id, id);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
