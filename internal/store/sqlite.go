// Package store provides storage backends for GlowBot.
//
// This file implements an SQLite-backed store for conversation state.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/NKAgeReverse/GlowBot/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetConversationState(senderID string) (*models.ConversationState, error) {
	row := s.db.QueryRow(`SELECT sender_id, stage, skin_type, concern, lead_score, ready_to_buy, lead_alerted, language, last_user_ts, short_history, created_at, updated_at FROM conversation_states WHERE sender_id = ?`, senderID)
	state, err := scanConversationState(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetConversationState failed", "error", err, "senderID", senderID)
		return nil, fmt.Errorf("failed to get conversation state for %s: %w", senderID, err)
	}
	return state, nil
}

func (s *SQLiteStore) SaveConversationState(state models.ConversationState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	historyJSON, err := marshalHistory(state.ShortHistory)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO conversation_states (sender_id, stage, skin_type, concern, lead_score, ready_to_buy, lead_alerted, language, last_user_ts, short_history, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sender_id) DO UPDATE SET stage=excluded.stage, skin_type=excluded.skin_type, concern=excluded.concern, lead_score=excluded.lead_score, ready_to_buy=excluded.ready_to_buy, lead_alerted=excluded.lead_alerted, language=excluded.language, last_user_ts=excluded.last_user_ts, short_history=excluded.short_history, updated_at=excluded.updated_at`,
		state.SenderID, string(state.Stage), nilIfEmpty(string(state.SkinType)), nilIfEmpty(string(state.Concern)),
		state.LeadScore, state.ReadyToBuy, state.LeadAlerted, nilIfEmpty(string(state.Language)),
		state.LastUserTimestamp, historyJSON, state.CreatedAt, state.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveConversationState failed", "error", err, "senderID", state.SenderID)
		return fmt.Errorf("failed to save conversation state for %s: %w", state.SenderID, err)
	}
	slog.Debug("SQLiteStore SaveConversationState succeeded", "senderID", state.SenderID, "stage", state.Stage)
	return nil
}

func (s *SQLiteStore) DeleteConversationState(senderID string) error {
	_, err := s.db.Exec(`DELETE FROM conversation_states WHERE sender_id = ?`, senderID)
	if err != nil {
		slog.Error("SQLiteStore DeleteConversationState failed", "error", err, "senderID", senderID)
		return fmt.Errorf("failed to delete conversation state for %s: %w", senderID, err)
	}
	return nil
}

func (s *SQLiteStore) ListConversationStates() ([]models.ConversationState, error) {
	rows, err := s.db.Query(`SELECT sender_id, stage, skin_type, concern, lead_score, ready_to_buy, lead_alerted, language, last_user_ts, short_history, created_at, updated_at FROM conversation_states`)
	if err != nil {
		slog.Error("SQLiteStore ListConversationStates query failed", "error", err)
		return nil, fmt.Errorf("failed to query conversation states: %w", err)
	}
	defer rows.Close()
	return collectConversationStates(rows)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
