// Package messenger wraps the Facebook Graph Send API for GlowBot.
//
// It provides the outbound half of the Messenger integration; inbound
// events arrive through the webhook in internal/api.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/NKAgeReverse/GlowBot/internal/models"
)

// Constants for Graph API configuration
const (
	// DefaultGraphAPIURL is the Messenger Send API endpoint.
	DefaultGraphAPIURL = "https://graph.facebook.com/v19.0/me/messages"
	// DefaultSendTimeout bounds one send call; a timed-out send is logged
	// and dropped, never retried.
	DefaultSendTimeout = 15 * time.Second
)

// Sender is an interface for sending Messenger messages (for production and testing).
type Sender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// Opts holds configuration options for the Messenger client.
type Opts struct {
	AccessToken string // page access token
	APIURL      string // Graph API endpoint override (tests)
	Timeout     time.Duration
}

// Option defines a configuration option for the Messenger client.
type Option func(*Opts)

// WithAccessToken sets the page access token.
func WithAccessToken(token string) Option {
	return func(o *Opts) { o.AccessToken = token }
}

// WithAPIURL overrides the Graph API endpoint.
func WithAPIURL(u string) Option {
	return func(o *Opts) { o.APIURL = u }
}

// WithTimeout sets the per-send timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// Client sends messages through the Graph Send API.
type Client struct {
	httpClient  *http.Client
	accessToken string
	apiURL      string
}

// NewClient creates a Messenger client, falling back to the
// PAGE_ACCESS_TOKEN environment variable when no token option is given.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = os.Getenv("PAGE_ACCESS_TOKEN")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("page access token must be provided")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultGraphAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSendTimeout
	}
	slog.Debug("Messenger client configured", "api_url", cfg.APIURL, "token_set", true, "timeout", cfg.Timeout)
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		accessToken: cfg.AccessToken,
		apiURL:      cfg.APIURL,
	}, nil
}

// SendMessage sends a text message to the given PSID.
func (c *Client) SendMessage(ctx context.Context, to string, body string) error {
	if to == "" {
		return fmt.Errorf("recipient cannot be empty")
	}
	if body == "" {
		return fmt.Errorf("message body cannot be empty")
	}

	payload := models.SendRequest{
		Recipient: models.Principal{ID: to},
		Message:   models.SendMessage{Text: body},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal send request: %w", err)
	}

	endpoint := c.apiURL + "?access_token=" + url.QueryEscape(c.accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("Messenger SendMessage invoked", "to", to, "body_length", len(body))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Messenger send failed", "error", err, "to", to)
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		var sendResp models.SendResponse
		if json.Unmarshal(respBody, &sendResp) == nil && sendResp.Error != nil {
			slog.Error("Messenger send rejected", "status", resp.StatusCode, "to", to, "graph_error", sendResp.Error.Message, "code", sendResp.Error.Code)
			return fmt.Errorf("graph API error %d for %s: %s", sendResp.Error.Code, to, sendResp.Error.Message)
		}
		slog.Error("Messenger send rejected", "status", resp.StatusCode, "to", to)
		return fmt.Errorf("graph API returned status %d for %s", resp.StatusCode, to)
	}

	slog.Debug("Messenger message sent successfully", "to", to)
	return nil
}

// DisabledClient implements Sender when no page access token is
// configured. Every send fails so the engine logs and skips it; the
// process itself keeps running.
type DisabledClient struct{}

func (DisabledClient) SendMessage(ctx context.Context, to string, body string) error {
	return fmt.Errorf("messenger send skipped: page access token not configured")
}

// MockClient implements Sender but records messages instead of sending
// them. Use it in tests to avoid real Graph API calls. Safe for
// concurrent use; read recorded sends through Messages when senders run
// on other goroutines.
type MockClient struct {
	mu   sync.Mutex
	Sent []models.SendRequest
	Err  error
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) SendMessage(ctx context.Context, to string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, models.SendRequest{
		Recipient: models.Principal{ID: to},
		Message:   models.SendMessage{Text: body},
	})
	return nil
}

// Messages returns a copy of the recorded sends.
func (m *MockClient) Messages() []models.SendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SendRequest(nil), m.Sent...)
}
