// Package store provides storage backends for GlowBot conversation state.
//
// The in-memory map is the default backing implementation; SQLite and
// PostgreSQL backends can be substituted without touching call sites.
package store

import (
	"strings"

	"github.com/NKAgeReverse/GlowBot/internal/models"
)

// Store abstracts conversation state persistence. All implementations are
// safe for concurrent use.
type Store interface {
	// GetConversationState returns the state for a sender, or nil if the
	// sender has no state yet.
	GetConversationState(senderID string) (*models.ConversationState, error)

	// SaveConversationState inserts or replaces the state for a sender.
	SaveConversationState(state models.ConversationState) error

	// DeleteConversationState removes the state for a sender. Deleting a
	// missing sender is not an error.
	DeleteConversationState(senderID string) error

	// ListConversationStates returns all stored states.
	ListConversationStates() ([]models.ConversationState, error)

	// Close releases any underlying resources.
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store backend.
type Option func(*Opts)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL-style DSNs and "sqlite"
// for everything else (file paths).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
