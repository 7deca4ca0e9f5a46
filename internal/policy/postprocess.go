package policy

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/NKAgeReverse/GlowBot/internal/models"
)

// urlPattern matches bare URLs in generated text.
var urlPattern = regexp.MustCompile(`https?://[^\s)>\]]+`)

// EllipsisMarker terminates clamped replies.
const EllipsisMarker = "…"

// stripDisallowedLinks removes every URL whose domain is neither the
// official brand domain nor the contact-link domain.
func (d *Dispatcher) stripDisallowedLinks(text string) string {
	return urlPattern.ReplaceAllStringFunc(text, func(raw string) string {
		if d.isAllowedLink(raw) {
			return raw
		}
		slog.Debug("Policy stripped disallowed link", "url", raw)
		return ""
	})
}

// isAllowedLink reports whether the URL's host is the brand or contact
// domain (or a subdomain of either).
func (d *Dispatcher) isAllowedLink(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range []string{d.cfg.BrandDomain, d.cfg.ContactDomain} {
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// injectCTA appends one canonical order link when the sender has shown
// buying intent or reached close/ReadyToBuy and no official link survived
// stripping.
func (d *Dispatcher) injectCTA(text string, state *models.ConversationState, sig models.Signals) string {
	wantsCTA := sig.BuyingScore > 0 || state.ReadyToBuy || state.Stage == models.StageClose
	if !wantsCTA {
		return text
	}
	// Only a surviving allow-listed URL counts; a bare domain mention is
	// not a clickable link.
	for _, raw := range urlPattern.FindAllString(text, -1) {
		if d.isAllowedLink(raw) {
			return text
		}
	}
	slog.Debug("Policy injected order CTA", "senderID", state.SenderID)
	return strings.TrimRight(text, " \n") + "\n🛒 " + d.cfg.OrderURL
}

// clamp truncates a reply to the configured character budget, terminating
// with the ellipsis marker. The budget counts runes so multi-byte text is
// not cut mid-character.
func (d *Dispatcher) clamp(text string) string {
	runes := []rune(text)
	if len(runes) <= d.cfg.MaxReplyLength {
		return text
	}
	slog.Debug("Policy clamped reply", "length", len(runes), "budget", d.cfg.MaxReplyLength)
	return string(runes[:d.cfg.MaxReplyLength-1]) + EllipsisMarker
}
