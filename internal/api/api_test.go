package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NKAgeReverse/GlowBot/internal/bot"
	"github.com/NKAgeReverse/GlowBot/internal/flow"
	"github.com/NKAgeReverse/GlowBot/internal/genai"
	"github.com/NKAgeReverse/GlowBot/internal/messaging"
	"github.com/NKAgeReverse/GlowBot/internal/messenger"
	"github.com/NKAgeReverse/GlowBot/internal/models"
	"github.com/NKAgeReverse/GlowBot/internal/policy"
	"github.com/NKAgeReverse/GlowBot/internal/store"
)

func newTestServer(t *testing.T) (*Server, *messenger.MockClient, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	sent := messenger.NewMockClient()
	states := flow.NewStoreBasedStateManager(st)
	svc := messaging.NewMessengerService(sent)
	engine := bot.NewEngine(states, policy.NewDispatcher(policy.DefaultConfig(), genai.NewMockClient()), svc, nil, nil)
	return NewServer(engine, WithVerifyToken("secret-token")), sent, st
}

func TestWebhookVerificationSuccess(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); body != "12345" {
		t.Errorf("body = %q, want the challenge echoed", body)
	}
}

func TestWebhookVerificationRejectsBadToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "12345") {
		t.Error("challenge must not be echoed on a failed verification")
	}
}

func TestWebhookVerificationRejectsWrongMode(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=unsubscribe&hub.verify_token=secret-token&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func postEvent(t *testing.T, srv *Server, event models.WebhookEvent) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestWebhookEventDispatchesMessage(t *testing.T) {
	srv, sent, st := newTestServer(t)

	rec := postEvent(t, srv, models.WebhookEvent{
		Object: "page",
		Entry: []models.Entry{{
			ID: "page-1",
			Messaging: []models.MessagingEvent{{
				Sender:    models.Principal{ID: "psid-1"},
				Timestamp: 1700000000000,
				Message:   &models.Message{Mid: "mid.1", Text: "harga berapa?"},
			}},
		}},
	})

	if rec.Code != http.StatusOK || rec.Body.String() != "EVENT_RECEIVED" {
		t.Fatalf("ack = %d %q", rec.Code, rec.Body.String())
	}
	if len(sent.Sent) != 1 {
		t.Fatalf("sent %d replies, want 1", len(sent.Sent))
	}
	if sent.Sent[0].Recipient.ID != "psid-1" {
		t.Errorf("reply recipient = %q", sent.Sent[0].Recipient.ID)
	}
	state, _ := st.GetConversationState("psid-1")
	if state == nil {
		t.Error("state not persisted from webhook event")
	}
}

func TestWebhookEventDispatchesPostback(t *testing.T) {
	srv, sent, _ := newTestServer(t)

	postEvent(t, srv, models.WebhookEvent{
		Object: "page",
		Entry: []models.Entry{{
			Messaging: []models.MessagingEvent{{
				Sender:   models.Principal{ID: "psid-1"},
				Postback: &models.Postback{Title: "Prices", Payload: "harga"},
			}},
		}},
	})

	if len(sent.Sent) != 1 || !strings.Contains(sent.Sent[0].Message.Text, "RM") {
		t.Errorf("postback reply = %+v", sent.Sent)
	}
}

func TestWebhookEventSkipsEchoes(t *testing.T) {
	srv, sent, _ := newTestServer(t)

	rec := postEvent(t, srv, models.WebhookEvent{
		Object: "page",
		Entry: []models.Entry{{
			Messaging: []models.MessagingEvent{{
				Sender:  models.Principal{ID: "page-psid"},
				Message: &models.Message{Text: "our own reply", IsEcho: true},
			}},
		}},
	})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if len(sent.Sent) != 0 {
		t.Errorf("replied to an echo: %+v", sent.Sent)
	}
}

func TestWebhookEventSkipsMissingSenderAndEmptyText(t *testing.T) {
	srv, sent, _ := newTestServer(t)

	postEvent(t, srv, models.WebhookEvent{
		Object: "page",
		Entry: []models.Entry{{
			Messaging: []models.MessagingEvent{
				{Message: &models.Message{Text: "no sender"}},
				{Sender: models.Principal{ID: "psid-1"}, Message: &models.Message{Text: ""}},
			},
		}},
	})

	if len(sent.Sent) != 0 {
		t.Errorf("replied to a malformed event: %+v", sent.Sent)
	}
}

func TestWebhookEventMalformedJSONStillAcked(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "EVENT_RECEIVED" {
		t.Errorf("ack = %d %q, want 200 EVENT_RECEIVED", rec.Code, rec.Body.String())
	}
}

func TestWebhookMethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/webhook", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp models.APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	if resp.Status != models.APIStatusOK {
		t.Errorf("status field = %q", resp.Status)
	}
}

func TestProductsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "NK Age-Reverse Serum") {
		t.Errorf("products response missing catalog entries: %s", body)
	}
}
