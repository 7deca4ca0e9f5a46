// Package signal implements keyword-based signal extraction for inbound
// messages.
//
// Matching is substring containment against fixed keyword tables, one per
// category. The tables are ordered data: for skin type and concern the
// first matching entry wins, so table order is the tie-break contract.
// Keyword lists consolidate the Malay and English variants into a single
// table per category.
package signal

import (
	"strings"

	"github.com/NKAgeReverse/GlowBot/internal/models"
)

// skinTypeRule maps a skin type to its trigger keywords.
type skinTypeRule struct {
	Type     models.SkinType
	Keywords []string
}

// concernRule maps a concern to its trigger keywords.
type concernRule struct {
	Concern  models.Concern
	Keywords []string
}

// skinTypeRules is checked in order; the first matching entry wins.
var skinTypeRules = []skinTypeRule{
	{models.SkinTypeOily, []string{"berminyak", "oily", "minyak"}},
	{models.SkinTypeDry, []string{"kering", "dry skin", "kulit kering"}},
	{models.SkinTypeCombination, []string{"kombinasi", "combination", "combo"}},
	{models.SkinTypeSensitive, []string{"sensitif", "sensitive"}},
	{models.SkinTypeAcneProne, []string{"berjerawat", "acne prone", "acne-prone", "jerawat teruk"}},
	{models.SkinTypeNormal, []string{"kulit normal", "normal skin"}},
}

// concernRules is checked in order; the first matching entry wins.
var concernRules = []concernRule{
	{models.ConcernFineLines, []string{"garis halus", "fine lines", "wrinkle", "kedut", "anti aging", "anti-aging", "penuaan"}},
	{models.ConcernAcne, []string{"jerawat", "acne", "pimple", "breakout"}},
	{models.ConcernDullness, []string{"kusam", "dull", "tak glowing", "gelap"}},
	{models.ConcernPores, []string{"pori", "pores", "liang"}},
	{models.ConcernDryness, []string{"kekeringan", "dehidrasi", "dehydrated", "mengelupas", "flaky"}},
	{models.ConcernScarring, []string{"parut", "scar", "bekas jerawat"}},
}

// buyingKeywords each contribute one point of buying evidence. The score
// accumulates across messages so ReadyToBuy requires corroboration rather
// than a single match. Longer phrases precede their substrings: matched
// text is consumed during scoring, so "nak beli" and "beli" cannot both
// score the same words.
var buyingKeywords = []string{
	"nak beli", "want to buy", "beli", "buy", "order", "purchase",
	"nak satu", "berminat", "interested", "cod", "postage", "pos",
}

// priceKeywords trigger the deterministic price template.
var priceKeywords = []string{"harga", "price", "berapa", "how much", "promo", "discount", "diskaun"}

// orderKeywords trigger the deterministic ordering-channel template.
var orderKeywords = []string{"link", "website", "checkout", "macam mana nak beli", "how to order", "cara order", "cara beli"}

// greetingKeywords identify bare greetings.
var greetingKeywords = []string{"hi", "hello", "hai", "helo", "assalamualaikum", "salam", "hey"}

// whichProductKeywords identify explicit product-recommendation requests.
var whichProductKeywords = []string{"produk mana", "which product", "recommend", "cadang", "sesuai untuk", "suitable for"}

// hazardKeywords identify safety-relevant reactions. A hazard match always
// routes to the fixed safety advisory, bypassing everything else.
var hazardKeywords = []string{"ruam", "rash", "gatal", "itchy", "merah", "irritat", "pedih", "bengkak", "swollen", "burning", "melecur"}

// englishMarkers bias the language guess toward English. Absent a marker
// the guess defaults to Malay, the brand's primary audience.
var englishMarkers = []string{"the ", "what", "how", "can you", "i want", "my skin", "please", "thanks", "hello"}

// Normalize lower-cases and trims inbound text.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Extract scans normalized text against the keyword tables and returns the
// extracted signals. It is a pure function: absence of a match leaves the
// corresponding field unset, never an error.
func Extract(text string) models.Signals {
	t := Normalize(text)
	var sig models.Signals

	for _, rule := range skinTypeRules {
		if containsAny(t, rule.Keywords) {
			sig.SkinType = rule.Type
			break
		}
	}
	for _, rule := range concernRules {
		if containsAny(t, rule.Keywords) {
			sig.Concern = rule.Concern
			break
		}
	}
	scored := t
	for _, kw := range buyingKeywords {
		if strings.Contains(scored, kw) {
			sig.BuyingScore++
			scored = strings.ReplaceAll(scored, kw, " ")
		}
	}
	sig.PriceIntent = containsAny(t, priceKeywords)
	sig.OrderIntent = containsAny(t, orderKeywords)
	sig.WhichProduct = containsAny(t, whichProductKeywords)
	sig.Hazard = containsAny(t, hazardKeywords)
	sig.Greeting = isGreeting(t)
	sig.Language = guessLanguage(t)

	return sig
}

// isGreeting matches greetings as whole words so short tokens like "hi" do
// not fire inside unrelated words.
func isGreeting(t string) bool {
	words := strings.Fields(t)
	for _, w := range words {
		w = strings.Trim(w, "!.,?")
		for _, kw := range greetingKeywords {
			if w == kw {
				return true
			}
		}
	}
	return false
}

// guessLanguage returns English only when an English marker is present,
// defaulting to Malay otherwise.
func guessLanguage(t string) models.Language {
	if containsAny(t, englishMarkers) {
		return models.LanguageEnglish
	}
	return models.LanguageMalay
}

func containsAny(t string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}
