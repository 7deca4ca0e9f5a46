// Package store provides storage backends for GlowBot.
//
// This file implements a PostgreSQL-backed store for conversation state.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/NKAgeReverse/GlowBot/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetConversationState(senderID string) (*models.ConversationState, error) {
	row := s.db.QueryRow(`SELECT sender_id, stage, skin_type, concern, lead_score, ready_to_buy, lead_alerted, language, last_user_ts, short_history, created_at, updated_at FROM conversation_states WHERE sender_id = $1`, senderID)
	state, err := scanConversationState(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetConversationState failed", "error", err, "senderID", senderID)
		return nil, fmt.Errorf("failed to get conversation state for %s: %w", senderID, err)
	}
	return state, nil
}

func (s *PostgresStore) SaveConversationState(state models.ConversationState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	historyJSON, err := marshalHistory(state.ShortHistory)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO conversation_states (sender_id, stage, skin_type, concern, lead_score, ready_to_buy, lead_alerted, language, last_user_ts, short_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (sender_id) DO UPDATE SET stage=EXCLUDED.stage, skin_type=EXCLUDED.skin_type, concern=EXCLUDED.concern, lead_score=EXCLUDED.lead_score, ready_to_buy=EXCLUDED.ready_to_buy, lead_alerted=EXCLUDED.lead_alerted, language=EXCLUDED.language, last_user_ts=EXCLUDED.last_user_ts, short_history=EXCLUDED.short_history, updated_at=EXCLUDED.updated_at`,
		state.SenderID, string(state.Stage), nilIfEmpty(string(state.SkinType)), nilIfEmpty(string(state.Concern)),
		state.LeadScore, state.ReadyToBuy, state.LeadAlerted, nilIfEmpty(string(state.Language)),
		state.LastUserTimestamp, historyJSON, state.CreatedAt, state.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveConversationState failed", "error", err, "senderID", state.SenderID)
		return fmt.Errorf("failed to save conversation state for %s: %w", state.SenderID, err)
	}
	slog.Debug("PostgresStore SaveConversationState succeeded", "senderID", state.SenderID, "stage", state.Stage)
	return nil
}

func (s *PostgresStore) DeleteConversationState(senderID string) error {
	_, err := s.db.Exec(`DELETE FROM conversation_states WHERE sender_id = $1`, senderID)
	if err != nil {
		slog.Error("PostgresStore DeleteConversationState failed", "error", err, "senderID", senderID)
		return fmt.Errorf("failed to delete conversation state for %s: %w", senderID, err)
	}
	return nil
}

func (s *PostgresStore) ListConversationStates() ([]models.ConversationState, error) {
	rows, err := s.db.Query(`SELECT sender_id, stage, skin_type, concern, lead_score, ready_to_buy, lead_alerted, language, last_user_ts, short_history, created_at, updated_at FROM conversation_states`)
	if err != nil {
		slog.Error("PostgresStore ListConversationStates query failed", "error", err)
		return nil, fmt.Errorf("failed to query conversation states: %w", err)
	}
	defer rows.Close()
	return collectConversationStates(rows)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
