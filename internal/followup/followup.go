// Package followup re-engages senders who go quiet mid-conversation.
//
// Each sender has at most one live follow-up slot. A new inbound message
// supersedes the previous slot atomically, so a nudge can never fire for a
// sender who has since replied. Timer handles are owned exclusively by the
// scheduler; request handlers only call Schedule and Cancel.
package followup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/NKAgeReverse/GlowBot/internal/flow"
	"github.com/NKAgeReverse/GlowBot/internal/messaging"
	"github.com/NKAgeReverse/GlowBot/internal/models"
)

// Default nudge delays measured from the last inbound message.
const (
	DefaultFirstDelay  = 15 * time.Minute
	DefaultSecondDelay = 60 * time.Minute
)

// nudge texts per tier and language.
var nudges = []map[models.Language]string{
	{
		models.LanguageMalay:   "Hai, masih ada soalan tentang produk NK Age-Reverse? Saya sedia membantu 😊",
		models.LanguageEnglish: "Hi, still thinking it over? Happy to answer any questions about NK Age-Reverse 😊",
	},
	{
		models.LanguageMalay:   "Jangan lepaskan kulit impian anda ✨ Kalau nak sambung sembang atau tengok harga, saya ada di sini!",
		models.LanguageEnglish: "Don't let your skin goals wait ✨ I'm here whenever you want to continue or check prices!",
	},
}

// slot tracks the pending follow-up timers for one sender.
type slot struct {
	timers      []*time.Timer
	scheduledAt time.Time
}

// Scheduler manages per-sender follow-up timers.
type Scheduler struct {
	mu     sync.Mutex
	slots  map[string]*slot
	states flow.StateManager
	msg    messaging.Service
	delays []time.Duration
}

// NewScheduler creates a Scheduler sending nudges through the given
// messaging service. Empty delays fall back to the defaults.
func NewScheduler(states flow.StateManager, msg messaging.Service, delays ...time.Duration) *Scheduler {
	if len(delays) == 0 {
		delays = []time.Duration{DefaultFirstDelay, DefaultSecondDelay}
	}
	slog.Debug("Creating follow-up scheduler", "tiers", len(delays))
	return &Scheduler{
		slots:  make(map[string]*slot),
		states: states,
		msg:    msg,
		delays: delays,
	}
}

// Schedule arms the follow-up tiers for a sender, superseding any pending
// slot. Call it on every inbound message.
func (s *Scheduler) Schedule(senderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(senderID)

	sl := &slot{scheduledAt: time.Now()}
	for tier, delay := range s.delays {
		tier := tier
		scheduledAt := sl.scheduledAt
		sl.timers = append(sl.timers, time.AfterFunc(delay, func() {
			s.fire(senderID, tier, scheduledAt)
		}))
	}
	s.slots[senderID] = sl
	slog.Debug("Follow-up scheduled", "senderID", senderID, "tiers", len(s.delays))
}

// Cancel drops the pending slot for a sender. Cancelling a sender without
// a slot is a no-op.
func (s *Scheduler) Cancel(senderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(senderID)
}

// cancelLocked stops and removes the sender's timers. Caller holds the lock.
func (s *Scheduler) cancelLocked(senderID string) {
	if sl, ok := s.slots[senderID]; ok {
		for _, t := range sl.timers {
			t.Stop()
		}
		delete(s.slots, senderID)
		slog.Debug("Follow-up cancelled", "senderID", senderID)
	}
}

// Stop cancels all pending follow-ups.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	slog.Info("Follow-up scheduler stopping", "pending", len(s.slots))
	for id := range s.slots {
		s.cancelLocked(id)
	}
}

// fire sends the nudge for one tier if the sender is still inactive. A
// superseded or cancelled slot performs no action.
func (s *Scheduler) fire(senderID string, tier int, scheduledAt time.Time) {
	s.mu.Lock()
	sl, ok := s.slots[senderID]
	if !ok || !sl.scheduledAt.Equal(scheduledAt) {
		// Superseded by newer activity; cooperative cancellation.
		s.mu.Unlock()
		return
	}
	if tier == len(s.delays)-1 {
		// Last tier fired; release the slot.
		delete(s.slots, senderID)
	}
	s.mu.Unlock()

	ctx := context.Background()
	state, err := s.states.Get(ctx, senderID)
	if err != nil {
		slog.Error("Follow-up state lookup failed", "error", err, "senderID", senderID)
		return
	}
	if state == nil {
		return
	}
	if state.LastUserTimestamp.After(scheduledAt) {
		slog.Debug("Follow-up skipped: newer inbound activity", "senderID", senderID, "tier", tier)
		return
	}

	text := nudgeFor(tier, state.Language)
	if err := s.msg.SendMessage(ctx, senderID, text); err != nil {
		slog.Error("Follow-up nudge send failed", "error", err, "senderID", senderID, "tier", tier)
		return
	}
	slog.Info("Follow-up nudge sent", "senderID", senderID, "tier", tier)
}

// nudgeFor picks the tier's text in the sender's language, clamping the
// tier to the configured texts.
func nudgeFor(tier int, lang models.Language) string {
	if tier >= len(nudges) {
		tier = len(nudges) - 1
	}
	if text, ok := nudges[tier][lang]; ok {
		return text
	}
	return nudges[tier][models.LanguageMalay]
}
