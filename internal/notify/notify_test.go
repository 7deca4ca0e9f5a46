package notify

import (
	"context"
	"testing"

	"github.com/NKAgeReverse/GlowBot/internal/models"
)

func TestNewTwilioNotifierRequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")
	t.Setenv("LEAD_ALERT_TO", "")

	if _, err := NewTwilioNotifier(); err == nil {
		t.Error("expected error without credentials")
	}
	if _, err := NewTwilioNotifier(WithAccountSID("AC123"), WithAuthToken("tok")); err == nil {
		t.Error("expected error without from/to numbers")
	}
}

func TestNewTwilioNotifierWithOptions(t *testing.T) {
	n, err := NewTwilioNotifier(
		WithAccountSID("AC123"),
		WithAuthToken("tok"),
		WithFrom("+15550000001"),
		WithTo("+60123456789"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n == nil {
		t.Fatal("expected a notifier")
	}
}

func TestNopNotifier(t *testing.T) {
	state := models.NewConversationState("psid-1")
	if err := (NopNotifier{}).NotifyHotLead(context.Background(), state); err != nil {
		t.Errorf("nop notifier returned error: %v", err)
	}
}
