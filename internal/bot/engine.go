// Package bot wires the signal extractor, state machine, reply policy,
// follow-up scheduler and notifier into the end-to-end message handler.
package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/NKAgeReverse/GlowBot/internal/flow"
	"github.com/NKAgeReverse/GlowBot/internal/followup"
	"github.com/NKAgeReverse/GlowBot/internal/messaging"
	"github.com/NKAgeReverse/GlowBot/internal/models"
	"github.com/NKAgeReverse/GlowBot/internal/notify"
	"github.com/NKAgeReverse/GlowBot/internal/policy"
	"github.com/NKAgeReverse/GlowBot/internal/signal"
)

// Engine handles one inbound message end to end. Nothing it does is fatal:
// every failure degrades to a fallback reply or a logged skip so the bot
// stays responsive.
type Engine struct {
	states     flow.StateManager
	dispatcher *policy.Dispatcher
	msg        messaging.Service
	followups  *followup.Scheduler
	notifier   notify.Notifier
}

// NewEngine creates an Engine. The follow-up scheduler and notifier are
// optional; nil disables them.
func NewEngine(states flow.StateManager, dispatcher *policy.Dispatcher, msg messaging.Service, followups *followup.Scheduler, notifier notify.Notifier) *Engine {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Engine{
		states:     states,
		dispatcher: dispatcher,
		msg:        msg,
		followups:  followups,
		notifier:   notifier,
	}
}

// HandleMessage processes one inbound text message from a sender: extract
// signals, advance the state machine, decide and send the reply, persist
// the updated state, and re-arm the follow-up schedule.
func (e *Engine) HandleMessage(ctx context.Context, senderID, text string, ts time.Time) {
	if senderID == "" || text == "" {
		slog.Debug("Engine skipping malformed message", "sender_set", senderID != "", "text_set", text != "")
		return
	}
	slog.Debug("Engine HandleMessage", "senderID", senderID, "body_length", len(text))

	sig := signal.Extract(text)

	state, err := e.states.GetOrCreate(ctx, senderID)
	if err != nil {
		slog.Error("Engine state load failed, replying stateless", "error", err, "senderID", senderID)
		state = models.NewConversationState(senderID)
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	state.LastUserTimestamp = ts

	wasReady := state.ReadyToBuy
	flow.Transition(state, sig)

	decision := e.dispatcher.Decide(ctx, state, sig, text)
	slog.Info("Engine reply decided", "senderID", senderID, "rule", decision.Rule, "stage", state.Stage, "leadScore", state.LeadScore)

	state.AppendHistory(models.RoleUser, text)
	state.AppendHistory(models.RoleAssistant, decision.Reply)

	if err := e.msg.SendMessage(ctx, senderID, decision.Reply); err != nil {
		// At-most-once: a failed send is logged and dropped.
		slog.Error("Engine outbound send failed", "error", err, "senderID", senderID)
	}

	if state.ReadyToBuy && !wasReady && !state.LeadAlerted {
		if err := e.notifier.NotifyHotLead(ctx, state); err != nil {
			slog.Error("Engine hot-lead alert failed", "error", err, "senderID", senderID)
		} else {
			state.LeadAlerted = true
		}
	}

	if err := e.states.Save(ctx, state); err != nil {
		slog.Error("Engine state save failed", "error", err, "senderID", senderID)
	}

	if e.followups != nil {
		e.followups.Schedule(senderID)
	}
}

// HandlePostback treats a postback button payload like a text message.
func (e *Engine) HandlePostback(ctx context.Context, senderID, payload string, ts time.Time) {
	e.HandleMessage(ctx, senderID, payload, ts)
}

// Listen consumes inbound responses from the engine's messaging service
// until the channel closes or the context is cancelled. Used for channels
// that push events (WhatsApp) rather than webhook-driven ones; replies go
// back out through the same service. Run one Engine per channel.
func (e *Engine) Listen(ctx context.Context) {
	slog.Debug("Engine Listen starting")
	for {
		select {
		case <-ctx.Done():
			slog.Debug("Engine Listen stopping: context cancelled")
			return
		case resp, ok := <-e.msg.Responses():
			if !ok {
				slog.Debug("Engine Listen stopping: response channel closed")
				return
			}
			e.HandleMessage(ctx, resp.From, resp.Body, time.Unix(resp.Time, 0))
		}
	}
}
