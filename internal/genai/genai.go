// Package genai provides delegated reply generation using the OpenAI API.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/NKAgeReverse/GlowBot/internal/models"
)

// DefaultTimeout bounds a single completion call. A call that exceeds it
// fails fast so the policy can fall back instead of hanging the message.
const DefaultTimeout = 30 * time.Second

// ClientInterface is the minimal surface the reply policy needs; it exists
// so tests can substitute a mock.
type ClientInterface interface {
	GenerateReply(ctx context.Context, systemPrompt string, history []models.HistoryEntry, userText string) (string, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithModel sets the completion model identifier.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewClient initializes a GenAI client, falling back to the
// OPENAI_API_KEY environment variable when no key option is given.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	slog.Debug("GenAI client configured", "model", cfg.Model, "base_url_set", cfg.BaseURL != "", "timeout", cfg.Timeout)

	return &Client{
		client:  openai.NewClient(reqOpts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// GenerateReply generates a reply from the system prompt, the bounded
// conversation history and the new user text. An empty completion is an
// error so callers never pass empty text to the end user.
func (c *Client) GenerateReply(ctx context.Context, systemPrompt string, history []models.HistoryEntry, userText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(systemPrompt)}
	for _, h := range history {
		switch h.Role {
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(h.Text))
		default:
			messages = append(messages, openai.UserMessage(h.Text))
		}
	}
	messages = append(messages, openai.UserMessage(userText))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		slog.Error("GenAI completion failed", "error", err, "model", c.model)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("empty completion returned")
	}
	slog.Debug("GenAI completion succeeded", "model", c.model, "reply_length", len(reply))
	return reply, nil
}

// providerPresets maps a provider selector to an OpenAI-compatible base
// URL. The zero entry is the OpenAI default.
var providerPresets = map[string]string{
	"openai":     "",
	"openrouter": "https://openrouter.ai/api/v1",
	"deepseek":   "https://api.deepseek.com/v1",
}

// BaseURLForProvider resolves a provider selector to a base URL override.
// Unknown providers are treated as OpenAI with a warning.
func BaseURLForProvider(provider string) string {
	if provider == "" {
		return ""
	}
	url, ok := providerPresets[strings.ToLower(provider)]
	if !ok {
		slog.Warn("Unknown model provider, defaulting to OpenAI", "provider", provider)
		return ""
	}
	return url
}

// MockClient is a canned ClientInterface for tests. It records every call
// and returns Reply, or Err when set.
type MockClient struct {
	Reply string
	Err   error

	Calls []MockCall
}

// MockCall records the arguments of one GenerateReply invocation.
type MockCall struct {
	SystemPrompt string
	History      []models.HistoryEntry
	UserText     string
}

// NewMockClient creates a MockClient with a default reply.
func NewMockClient() *MockClient {
	return &MockClient{Reply: "mock reply"}
}

func (m *MockClient) GenerateReply(_ context.Context, systemPrompt string, history []models.HistoryEntry, userText string) (string, error) {
	m.Calls = append(m.Calls, MockCall{SystemPrompt: systemPrompt, History: history, UserText: userText})
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}
