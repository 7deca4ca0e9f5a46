// Package policy decides how GlowBot replies to an inbound message.
//
// The dispatch is an ordered rule table: the first rule whose condition
// matches produces the reply. Scripted rules (safety, price, order,
// greeting) come before the delegated-model rule so deterministic answers
// can never be overridden by generated text.
package policy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/NKAgeReverse/GlowBot/internal/catalog"
	"github.com/NKAgeReverse/GlowBot/internal/genai"
	"github.com/NKAgeReverse/GlowBot/internal/models"
)

// Config holds the link policy and reply limits.
type Config struct {
	// BrandDomain is the official product domain; links from any other
	// domain are stripped from delegated replies.
	BrandDomain string
	// ContactDomain is the allowed contact-link domain (e.g. wa.me).
	ContactDomain string
	// OrderURL is the canonical ordering link.
	OrderURL string
	// ContactURL is the canonical contact channel link.
	ContactURL string
	// MaxReplyLength clamps outbound text; longer replies are truncated
	// with an ellipsis marker.
	MaxReplyLength int
}

// DefaultMaxReplyLength is the outbound character budget.
const DefaultMaxReplyLength = 900

// DefaultConfig returns the link policy for the official brand presence.
func DefaultConfig() Config {
	return Config{
		BrandDomain:    "nkagereverse.com",
		ContactDomain:  "wa.me",
		OrderURL:       "https://nkagereverse.com/shop",
		ContactURL:     "https://wa.me/60123456789",
		MaxReplyLength: DefaultMaxReplyLength,
	}
}

// Decision records which rule produced a reply, mainly for logging and
// tests.
type Decision struct {
	Rule  string
	Reply string
	// Delegated is true when the reply came from the external model.
	Delegated bool
}

// rule is one entry in the ordered dispatch table.
type rule struct {
	name    string
	matches func(state *models.ConversationState, sig models.Signals) bool
	respond func(d *Dispatcher, ctx context.Context, state *models.ConversationState, sig models.Signals, rawText string) (string, bool)
}

// Dispatcher owns the rule table and the delegated-reply client.
type Dispatcher struct {
	cfg   Config
	ai    genai.ClientInterface
	rules []rule
}

// NewDispatcher creates a Dispatcher. The GenAI client may be nil, in
// which case the delegated path always falls back to the scripted reply.
func NewDispatcher(cfg Config, ai genai.ClientInterface) *Dispatcher {
	if cfg.MaxReplyLength <= 0 {
		cfg.MaxReplyLength = DefaultMaxReplyLength
	}
	d := &Dispatcher{cfg: cfg, ai: ai}
	d.rules = []rule{
		{
			name: "safety",
			matches: func(_ *models.ConversationState, sig models.Signals) bool {
				return sig.Hazard
			},
			respond: func(_ *Dispatcher, _ context.Context, _ *models.ConversationState, sig models.Signals, _ string) (string, bool) {
				return templateFor(safetyAdvisory, sig.Language), false
			},
		},
		{
			name: "price",
			matches: func(_ *models.ConversationState, sig models.Signals) bool {
				return sig.PriceIntent
			},
			respond: func(_ *Dispatcher, _ context.Context, state *models.ConversationState, sig models.Signals, _ string) (string, bool) {
				picks := catalog.Pick(state.SkinType, state.Concern)
				return renderPriceReply(picks, sig.Language), false
			},
		},
		{
			name: "order",
			matches: func(_ *models.ConversationState, sig models.Signals) bool {
				return sig.OrderIntent
			},
			respond: func(d *Dispatcher, _ context.Context, _ *models.ConversationState, sig models.Signals, _ string) (string, bool) {
				return renderOrderReply(d.cfg.OrderURL, d.cfg.ContactURL, sig.Language), false
			},
		},
		{
			name: "greeting",
			matches: func(state *models.ConversationState, sig models.Signals) bool {
				return sig.Greeting && state.Stage == models.StageStart &&
					sig.SkinType == "" && sig.Concern == "" && sig.BuyingScore == 0
			},
			respond: func(_ *Dispatcher, _ context.Context, _ *models.ConversationState, sig models.Signals, _ string) (string, bool) {
				return templateFor(greeting, sig.Language), false
			},
		},
		{
			name: "delegate",
			matches: func(_ *models.ConversationState, _ models.Signals) bool {
				return true
			},
			respond: (*Dispatcher).delegate,
		},
	}
	return d
}

// Decide runs the rule table and returns the chosen reply. It never
// returns an error: every failure inside a rule degrades to the fixed
// fallback question.
func (d *Dispatcher) Decide(ctx context.Context, state *models.ConversationState, sig models.Signals, rawText string) Decision {
	for _, r := range d.rules {
		if !r.matches(state, sig) {
			continue
		}
		reply, delegated := r.respond(d, ctx, state, sig, rawText)
		slog.Debug("Policy rule matched", "rule", r.name, "senderID", state.SenderID, "delegated", delegated)
		return Decision{Rule: r.name, Reply: d.clamp(reply), Delegated: delegated}
	}
	// Unreachable: the delegate rule always matches.
	return Decision{Rule: "fallback", Reply: templateFor(fallback, sig.Language)}
}

// delegate calls the external model and post-processes the result. Any
// failure yields the fixed fallback instead of an error-shaped reply.
func (d *Dispatcher) delegate(ctx context.Context, state *models.ConversationState, sig models.Signals, rawText string) (string, bool) {
	if d.ai == nil {
		slog.Warn("Policy delegate: no GenAI client configured, using fallback", "senderID", state.SenderID)
		return templateFor(fallback, sig.Language), false
	}

	reply, err := d.ai.GenerateReply(ctx, d.systemPrompt(state), state.ShortHistory, rawText)
	if err != nil || strings.TrimSpace(reply) == "" {
		slog.Error("Policy delegate failed, using fallback", "error", err, "senderID", state.SenderID)
		return templateFor(fallback, sig.Language), false
	}

	reply = d.stripDisallowedLinks(reply)
	reply = d.injectCTA(reply, state, sig)
	return reply, true
}

// systemPrompt builds the delegated-reply instruction from the brand voice
// rules, the verbatim catalog, and a compact state summary.
func (d *Dispatcher) systemPrompt(state *models.ConversationState) string {
	var b strings.Builder
	b.WriteString("You are the NK Age-Reverse skincare assistant on Facebook Messenger. ")
	b.WriteString("Reply warmly and briefly in the customer's language (Malay or English), use at most one emoji per message, ")
	b.WriteString("never invent prices, promotions or products, and never give medical advice.\n\n")
	b.WriteString(catalog.ForPrompt())
	fmt.Fprintf(&b, "\nConversation summary: stage=%s", state.Stage)
	if state.SkinType != "" {
		fmt.Fprintf(&b, ", skin=%s", state.SkinType)
	}
	if state.Concern != "" {
		fmt.Fprintf(&b, ", concern=%s", state.Concern)
	}
	if state.ReadyToBuy {
		b.WriteString(", customer is ready to buy")
	}
	return b.String()
}
