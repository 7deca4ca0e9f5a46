// Package models defines the core data structures used across GlowBot.
//
// It contains the conversation state record, the extracted signal set,
// the product catalog entry, and shared API response envelopes.
package models

import (
	"fmt"
	"time"
)

// SkinType enumerates the skin types the bot can classify.
type SkinType string

const (
	SkinTypeDry         SkinType = "dry"
	SkinTypeOily        SkinType = "oily"
	SkinTypeCombination SkinType = "combination"
	SkinTypeSensitive   SkinType = "sensitive"
	SkinTypeAcneProne   SkinType = "acne-prone"
	SkinTypeNormal      SkinType = "normal"
)

// Concern enumerates the skin concerns the bot can classify.
type Concern string

const (
	ConcernFineLines Concern = "fine-lines"
	ConcernAcne      Concern = "acne"
	ConcernDullness  Concern = "dullness"
	ConcernPores     Concern = "pores"
	ConcernDryness   Concern = "dryness"
	ConcernScarring  Concern = "scarring"
)

// Language is a coarse language guess for an inbound message.
type Language string

const (
	LanguageMalay   Language = "ms"
	LanguageEnglish Language = "en"
)

// Stage represents a position in the sales-funnel lattice.
// The lattice is strictly ordered: start < qualify < recommend < close.
type Stage string

const (
	StageStart     Stage = "start"
	StageQualify   Stage = "qualify"
	StageRecommend Stage = "recommend"
	StageClose     Stage = "close"
)

// stageRank maps each stage to its position in the lattice. Used to guard
// against stage regression: a transition only applies if it moves forward.
var stageRank = map[Stage]int{
	StageStart:     0,
	StageQualify:   1,
	StageRecommend: 2,
	StageClose:     3,
}

// Rank returns the stage's position in the lattice. Unknown stages rank
// below start so they are always overwritten by a real stage.
func (s Stage) Rank() int {
	if r, ok := stageRank[s]; ok {
		return r
	}
	return -1
}

// Signals holds the categorical signals extracted from one inbound message.
// Categories are independent; a single message may carry several at once.
type Signals struct {
	SkinType     SkinType `json:"skin_type,omitempty"`
	Concern      Concern  `json:"concern,omitempty"`
	BuyingScore  int      `json:"buying_score,omitempty"`
	Greeting     bool     `json:"greeting,omitempty"`
	PriceIntent  bool     `json:"price_intent,omitempty"`
	OrderIntent  bool     `json:"order_intent,omitempty"`
	WhichProduct bool     `json:"which_product,omitempty"`
	Hazard       bool     `json:"hazard,omitempty"`
	Language     Language `json:"language,omitempty"`
}

// HistoryRole identifies who produced a history entry.
type HistoryRole string

const (
	RoleUser      HistoryRole = "user"
	RoleAssistant HistoryRole = "assistant"
)

// HistoryEntry is one (role, text) pair in a sender's short history.
type HistoryEntry struct {
	Role HistoryRole `json:"role"`
	Text string      `json:"text"`
}

// MaxHistoryEntries bounds the per-sender short history. Oldest entries are
// evicted first once the bound is reached.
const MaxHistoryEntries = 8

// LeadScoreThreshold is the lead score at which ReadyToBuy flips true.
const LeadScoreThreshold = 3

// ConversationState is the per-sender conversation record. One exists per
// sender ID, created lazily on the first inbound message and mutated only
// by the flow state machine.
type ConversationState struct {
	SenderID          string         `json:"sender_id"`
	Stage             Stage          `json:"stage"`
	SkinType          SkinType       `json:"skin_type,omitempty"`
	Concern           Concern        `json:"concern,omitempty"`
	LeadScore         int            `json:"lead_score"`
	ReadyToBuy        bool           `json:"ready_to_buy"`
	LeadAlerted       bool           `json:"lead_alerted"`
	Language          Language       `json:"language,omitempty"`
	LastUserTimestamp time.Time      `json:"last_user_timestamp"`
	ShortHistory      []HistoryEntry `json:"short_history,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// NewConversationState creates a fresh state record for a sender.
func NewConversationState(senderID string) *ConversationState {
	now := time.Now()
	return &ConversationState{
		SenderID:  senderID,
		Stage:     StageStart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendHistory appends one (role, text) entry, evicting the oldest entry
// when the history is full. The bound holds after every call.
func (c *ConversationState) AppendHistory(role HistoryRole, text string) {
	c.ShortHistory = append(c.ShortHistory, HistoryEntry{Role: role, Text: text})
	if len(c.ShortHistory) > MaxHistoryEntries {
		c.ShortHistory = c.ShortHistory[len(c.ShortHistory)-MaxHistoryEntries:]
	}
}

// Validate checks basic state invariants.
func (c *ConversationState) Validate() error {
	if c.SenderID == "" {
		return fmt.Errorf("sender ID is required")
	}
	if c.LeadScore < 0 {
		return fmt.Errorf("lead score must be non-negative, got %d", c.LeadScore)
	}
	if len(c.ShortHistory) > MaxHistoryEntries {
		return fmt.Errorf("short history exceeds bound: %d > %d", len(c.ShortHistory), MaxHistoryEntries)
	}
	return nil
}

// Product is one immutable catalog entry. The catalog is loaded at startup
// and is the single source of truth for names, prices and URLs; the
// delegated-reply path must never contradict it.
type Product struct {
	Name      string     `json:"name"`
	Category  string     `json:"category"`
	Price     string     `json:"price"`
	SkinTypes []SkinType `json:"skin_types,omitempty"`
	Benefits  []string   `json:"benefits,omitempty"`
	URL       string     `json:"url"`
}

// Response represents an inbound participant message delivered by a
// messaging service.
type Response struct {
	From string `json:"from"`
	Body string `json:"body"`
	Time int64  `json:"time"`
}
