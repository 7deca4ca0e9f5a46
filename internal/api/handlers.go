// Package api provides HTTP handlers for GlowBot endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/NKAgeReverse/GlowBot/internal/catalog"
	"github.com/NKAgeReverse/GlowBot/internal/models"
)

// webhookHandler routes the Messenger webhook: GET is the verification
// handshake, POST delivers events.
func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	switch r.Method {
	case http.MethodGet:
		s.verifyHandler(w, r)
	case http.MethodPost:
		s.eventsHandler(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		slog.Warn("Server.webhookHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// verifyHandler echoes hub.challenge only when hub.mode is "subscribe" and
// hub.verify_token matches the configured secret; anything else is a 403.
func (s *Server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && s.verifyToken != "" && token == s.verifyToken {
		slog.Info("Server.verifyHandler: webhook verified")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(challenge)); err != nil {
			slog.Error("Server.verifyHandler: failed to write challenge", "error", err)
		}
		return
	}

	slog.Warn("Server.verifyHandler: verification failed", "mode", mode)
	w.WriteHeader(http.StatusForbidden)
	if _, err := w.Write([]byte("Verification failed")); err != nil {
		slog.Error("Server.verifyHandler: failed to write response", "error", err)
	}
}

// eventsHandler processes a webhook event POST. Malformed or unsupported
// events are skipped silently; the handler always acknowledges with 200 so
// the platform does not retry, and no failure may escape it.
func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Server.eventsHandler: recovered from panic", "panic", rec)
			w.WriteHeader(http.StatusOK)
		}
	}()

	var event models.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		slog.Warn("Server.eventsHandler: failed to decode JSON, skipping", "error", err)
		writeEventAck(w)
		return
	}
	slog.Debug("Server.eventsHandler: event received", "object", event.Object, "entries", len(event.Entry))

	for _, entry := range event.Entry {
		for _, msg := range entry.Messaging {
			s.dispatchEvent(r, msg)
		}
	}

	writeEventAck(w)
}

// dispatchEvent hands one messaging event to the engine. Echo messages,
// missing senders and empty text are skipped silently, no reply sent.
func (s *Server) dispatchEvent(r *http.Request, msg models.MessagingEvent) {
	senderID := msg.Sender.ID
	if senderID == "" {
		slog.Debug("Server.dispatchEvent: skipping event without sender")
		return
	}

	ts := time.UnixMilli(msg.Timestamp)
	switch {
	case msg.Message != nil && msg.Message.IsEcho:
		slog.Debug("Server.dispatchEvent: skipping echo message", "senderID", senderID)
	case msg.Message != nil && msg.Message.Text != "":
		s.engine.HandleMessage(r.Context(), senderID, msg.Message.Text, ts)
	case msg.Postback != nil && msg.Postback.Payload != "":
		s.engine.HandlePostback(r.Context(), senderID, msg.Postback.Payload, ts)
	default:
		slog.Debug("Server.dispatchEvent: skipping unsupported event", "senderID", senderID)
	}
}

// writeEventAck acknowledges a webhook POST.
func writeEventAck(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("EVENT_RECEIVED")); err != nil {
		slog.Error("Server: failed to write event ack", "error", err)
	}
}

// healthHandler reports liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}

// productsHandler returns the static catalog.
func (s *Server) productsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(catalog.All()))
}
