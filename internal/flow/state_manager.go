// Package flow provides concrete implementations of state management.
package flow

import (
	"context"
	"time"

	"log/slog"

	"github.com/NKAgeReverse/GlowBot/internal/models"
	"github.com/NKAgeReverse/GlowBot/internal/store"
)

// StateManager abstracts conversation state access for the engine and the
// follow-up scheduler.
type StateManager interface {
	// GetOrCreate returns the sender's state, creating it lazily on the
	// first inbound message.
	GetOrCreate(ctx context.Context, senderID string) (*models.ConversationState, error)

	// Get returns the sender's state, or nil if none exists.
	Get(ctx context.Context, senderID string) (*models.ConversationState, error)

	// Save persists the sender's state.
	Save(ctx context.Context, state *models.ConversationState) error
}

// StoreBasedStateManager implements StateManager using a Store backend.
type StoreBasedStateManager struct {
	store store.Store
}

// NewStoreBasedStateManager creates a new StateManager backed by a Store.
func NewStoreBasedStateManager(st store.Store) *StoreBasedStateManager {
	slog.Debug("Creating StoreBasedStateManager")
	return &StoreBasedStateManager{store: st}
}

// GetOrCreate retrieves the current state for a sender, creating a fresh
// record when the sender is unknown.
func (sm *StoreBasedStateManager) GetOrCreate(ctx context.Context, senderID string) (*models.ConversationState, error) {
	state, err := sm.store.GetConversationState(senderID)
	if err != nil {
		slog.Error("StateManager GetOrCreate error", "error", err, "senderID", senderID)
		return nil, err
	}
	if state == nil {
		slog.Debug("StateManager creating new conversation state", "senderID", senderID)
		state = models.NewConversationState(senderID)
	}
	return state, nil
}

// Get retrieves the current state for a sender.
func (sm *StoreBasedStateManager) Get(ctx context.Context, senderID string) (*models.ConversationState, error) {
	state, err := sm.store.GetConversationState(senderID)
	if err != nil {
		slog.Error("StateManager Get error", "error", err, "senderID", senderID)
		return nil, err
	}
	return state, nil
}

// Save persists the sender's state, bumping the update timestamp.
func (sm *StoreBasedStateManager) Save(ctx context.Context, state *models.ConversationState) error {
	state.UpdatedAt = time.Now()
	if err := sm.store.SaveConversationState(*state); err != nil {
		slog.Error("StateManager Save error", "error", err, "senderID", state.SenderID)
		return err
	}
	slog.Debug("StateManager Save succeeded", "senderID", state.SenderID, "stage", state.Stage, "leadScore", state.LeadScore)
	return nil
}
