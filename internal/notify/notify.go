// Package notify alerts the sales team when a conversation turns into a
// hot lead.
//
// The original bot offers to "sambungkan dengan admin"; this is the
// outbound half of that handoff, fired once per session when ReadyToBuy
// flips true.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/NKAgeReverse/GlowBot/internal/models"
)

// Notifier delivers hot-lead alerts to the sales contact.
type Notifier interface {
	NotifyHotLead(ctx context.Context, state *models.ConversationState) error
}

// Opts holds configuration options for the Twilio notifier.
type Opts struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// Option defines a configuration option for the Twilio notifier.
type Option func(*Opts)

func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

func WithFrom(from string) Option {
	return func(o *Opts) { o.From = from }
}

func WithTo(to string) Option {
	return func(o *Opts) { o.To = to }
}

// TwilioNotifier sends hot-lead alerts as SMS via the Twilio REST API.
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
	to     string
}

// NewTwilioNotifier creates a notifier, falling back to TWILIO_ACCOUNT_SID,
// TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER and LEAD_ALERT_TO environment
// variables for unset options.
func NewTwilioNotifier(opts ...Option) (*TwilioNotifier, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.From == "" {
		cfg.From = os.Getenv("TWILIO_FROM_NUMBER")
	}
	if cfg.To == "" {
		cfg.To = os.Getenv("LEAD_ALERT_TO")
	}
	slog.Debug("Twilio notifier config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"From_set", cfg.From != "",
		"To_set", cfg.To != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.From == "" || cfg.To == "" {
		return nil, fmt.Errorf("from and to numbers must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioNotifier{client: client, from: cfg.From, to: cfg.To}, nil
}

// NotifyHotLead sends one SMS summarizing the lead.
func (n *TwilioNotifier) NotifyHotLead(ctx context.Context, state *models.ConversationState) error {
	body := fmt.Sprintf("🔥 Hot lead on Messenger: sender %s (skin: %s, concern: %s, score %d). Follow up now!",
		state.SenderID, orUnknown(string(state.SkinType)), orUnknown(string(state.Concern)), state.LeadScore)

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(n.from)
	params.SetTo(n.to)
	params.SetBody(body)

	if _, err := n.client.Api.CreateMessage(params); err != nil {
		slog.Error("Twilio hot-lead alert failed", "error", err, "senderID", state.SenderID)
		return fmt.Errorf("failed to send hot-lead alert for %s: %w", state.SenderID, err)
	}
	slog.Info("Twilio hot-lead alert sent", "senderID", state.SenderID, "leadScore", state.LeadScore)
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// NopNotifier is used when Twilio credentials are not configured.
type NopNotifier struct{}

func (NopNotifier) NotifyHotLead(ctx context.Context, state *models.ConversationState) error {
	slog.Debug("Hot-lead alert skipped: notifier not configured", "senderID", state.SenderID)
	return nil
}
