package store

import (
	"sync"

	"github.com/NKAgeReverse/GlowBot/internal/models"
)

// InMemoryStore is the default Store backed by a mutex-guarded map.
// State lives for the process lifetime and is lost on restart.
type InMemoryStore struct {
	mu     sync.RWMutex
	states map[string]models.ConversationState
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{states: make(map[string]models.ConversationState)}
}

func (s *InMemoryStore) GetConversationState(senderID string) (*models.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[senderID]
	if !ok {
		return nil, nil
	}
	// Copy out so callers cannot mutate the stored record in place.
	cp := state
	cp.ShortHistory = append([]models.HistoryEntry(nil), state.ShortHistory...)
	return &cp, nil
}

func (s *InMemoryStore) SaveConversationState(state models.ConversationState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state.ShortHistory = append([]models.HistoryEntry(nil), state.ShortHistory...)
	s.states[state.SenderID] = state
	return nil
}

func (s *InMemoryStore) DeleteConversationState(senderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, senderID)
	return nil
}

func (s *InMemoryStore) ListConversationStates() ([]models.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ConversationState, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, st)
	}
	return out, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
