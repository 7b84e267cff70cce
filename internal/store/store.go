package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	apperrors "github.com/ggonzalez94/arbchat/internal/errors"
	"github.com/ggonzalez94/arbchat/internal/model"
)

const lockTimeout = 5 * time.Second

// Store persists chat history, the transaction log, and background price
// scans in a single sqlite file. Writes are serialized through a file lock
// so concurrent CLI invocations do not interleave.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

func Open(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "create store directory", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "create lock directory", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "open sqlite", err)
	}

	queries := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS chat_messages (
			message_id TEXT PRIMARY KEY,
			role TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_chat_messages_seq ON chat_messages(seq ASC);",
		`CREATE TABLE IF NOT EXISTS tx_intents (
			intent_id TEXT PRIMARY KEY,
			tx_hash TEXT NOT NULL,
			account_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_tx_intents_created ON tx_intents(created_at DESC);",
		`CREATE TABLE IF NOT EXISTS price_scans (
			scanned_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_price_scans_scanned ON price_scans(scanned_at DESC);",
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			_ = db.Close()
			return nil, apperrors.Wrap(apperrors.CodeStorage, "init store schema", err)
		}
	}
	return &Store{db: db, lock: flock.New(lockPath)}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) withLock(fn func() error) error {
	locked, err := s.lock.TryLockContext(context.Background(), lockTimeout)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "lock store", err)
	}
	if !locked {
		return apperrors.New(apperrors.CodeStorage, "lock store: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}

// AppendMessage writes one chat message at the next sequence position.
func (s *Store) AppendMessage(msg model.ChatMessage) error {
	if strings.TrimSpace(msg.ID) == "" {
		return apperrors.New(apperrors.CodeStorage, "append message: missing message id")
	}
	return s.withLock(func() error {
		payload, err := json.Marshal(msg)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeStorage, "marshal message", err)
		}
		_, err = s.db.Exec(`
			INSERT INTO chat_messages (message_id, role, created_at, seq, payload)
			VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM chat_messages), ?)
		`, msg.ID, string(msg.Role), msg.CreatedAt.UTC().Unix(), payload)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeStorage, "append message", err)
		}
		return nil
	})
}

// Messages returns the conversation history in append order.
func (s *Store) Messages(limit int) ([]model.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT payload FROM (
			SELECT seq, payload FROM chat_messages ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC
	`, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "list messages", err)
	}
	defer rows.Close()

	messages := make([]model.ChatMessage, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorage, "scan message row", err)
		}
		var msg model.ChatMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorage, "decode message row", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "iterate message rows", err)
	}
	return messages, nil
}

// AppendIntent records one confirmed transfer intent in the tx log.
func (s *Store) AppendIntent(intent model.TxIntent) error {
	if strings.TrimSpace(intent.ID) == "" {
		return apperrors.New(apperrors.CodeStorage, "append intent: missing intent id")
	}
	return s.withLock(func() error {
		payload, err := json.Marshal(intent)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeStorage, "marshal intent", err)
		}
		_, err = s.db.Exec(`
			INSERT INTO tx_intents (intent_id, tx_hash, account_id, created_at, payload)
			VALUES (?, ?, ?, ?, ?)
		`, intent.ID, intent.Hash, intent.AccountID, intent.CreatedAt.UTC().Unix(), payload)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeStorage, "append intent", err)
		}
		return nil
	})
}

// Intents returns the most recent transfer intents, newest first.
func (s *Store) Intents(limit int) ([]model.TxIntent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query("SELECT payload FROM tx_intents ORDER BY created_at DESC, intent_id DESC LIMIT ?", limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "list intents", err)
	}
	defer rows.Close()

	intents := make([]model.TxIntent, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorage, "scan intent row", err)
		}
		var intent model.TxIntent
		if err := json.Unmarshal(payload, &intent); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorage, "decode intent row", err)
		}
		intents = append(intents, intent)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "iterate intent rows", err)
	}
	return intents, nil
}

// AppendScan records one background price observation and trims the table
// to the retention window.
func (s *Store) AppendScan(scan model.PriceScan, keep int) error {
	if keep <= 0 {
		keep = 50
	}
	return s.withLock(func() error {
		payload, err := json.Marshal(scan)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeStorage, "marshal scan", err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO price_scans (scanned_at, payload) VALUES (?, ?)",
			scan.Timestamp.UTC().UnixNano(), payload,
		); err != nil {
			return apperrors.Wrap(apperrors.CodeStorage, "append scan", err)
		}
		_, err = s.db.Exec(`
			DELETE FROM price_scans WHERE rowid NOT IN (
				SELECT rowid FROM price_scans ORDER BY scanned_at DESC LIMIT ?
			)
		`, keep)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeStorage, "trim scans", err)
		}
		return nil
	})
}

// Scans returns the most recent price observations, newest first.
func (s *Store) Scans(limit int) ([]model.PriceScan, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query("SELECT payload FROM price_scans ORDER BY scanned_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "list scans", err)
	}
	defer rows.Close()

	scans := make([]model.PriceScan, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorage, "scan price row", err)
		}
		var scan model.PriceScan
		if err := json.Unmarshal(payload, &scan); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorage, "decode price row", err)
		}
		scans = append(scans, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "iterate price rows", err)
	}
	return scans, nil
}
