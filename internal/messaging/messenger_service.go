package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/NKAgeReverse/GlowBot/internal/messenger"
	"github.com/NKAgeReverse/GlowBot/internal/models"
)

// psidRegex keeps only digits; Messenger PSIDs are numeric strings.
var psidRegex = regexp.MustCompile(`[^0-9]`)

// MessengerService implements Service over the Graph Send API. Inbound
// events arrive through the webhook handler, which dispatches them to the
// engine directly.
type MessengerService struct {
	client    messenger.Sender
	responses chan models.Response
	done      chan struct{}
	mu        sync.Mutex
	stopped   bool
}

// NewMessengerService creates a MessengerService wrapping the given Sender.
func NewMessengerService(client messenger.Sender) *MessengerService {
	return &MessengerService{
		client:    client,
		responses: make(chan models.Response, DefaultChannelBufferSize),
		done:      make(chan struct{}),
	}
}

// ValidateAndCanonicalizeRecipient validates a Messenger PSID. It strips
// non-digits and requires a non-empty numeric remainder.
func (s *MessengerService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}
	canonical := psidRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", fmt.Errorf("invalid PSID: no digits found in recipient %q", recipient)
	}
	if canonical != recipient {
		slog.Debug("MessengerService canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}

// SendMessage sends a message through the Graph API.
func (s *MessengerService) SendMessage(ctx context.Context, to string, body string) error {
	return s.client.SendMessage(ctx, to, body)
}

// Start is a no-op: inbound Messenger traffic is webhook-driven.
func (s *MessengerService) Start(ctx context.Context) error {
	slog.Debug("MessengerService Start invoked")
	return nil
}

// Stop closes the response channel.
func (s *MessengerService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.done)
	close(s.responses)
	slog.Info("MessengerService stopped")
	return nil
}

// Responses returns the inbound response channel. Messenger inbound
// traffic is webhook-driven and dispatched to the engine directly, so the
// channel stays empty; it exists to satisfy the Service contract.
func (s *MessengerService) Responses() <-chan models.Response {
	return s.responses
}
