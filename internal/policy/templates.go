package policy

import (
	"fmt"
	"strings"

	"github.com/NKAgeReverse/GlowBot/internal/models"
)

// Scripted reply templates. Deterministic paths never touch the model, so
// prices and ordering channels can never be hallucinated.

// safetyAdvisory is the fixed reaction advisory per language. It always
// wins over every other reply path.
var safetyAdvisory = map[models.Language]string{
	models.LanguageMalay:   "Maaf mendengar tentang reaksi kulit anda 🙏 Sila hentikan penggunaan produk serta-merta, bilas dengan air bersih, dan jumpa doktor jika keadaan serius atau berlarutan. Keselamatan kulit anda yang utama 💙",
	models.LanguageEnglish: "So sorry to hear about your skin reaction 🙏 Please stop using the product immediately, rinse with clean water, and see a doctor if it is severe or persists. Your skin's safety comes first 💙",
}

// greeting is the fixed first-touch template asking for skin type.
var greeting = map[models.Language]string{
	models.LanguageMalay:   "Hi 👋 Selamat datang ke NK Age-Reverse! Boleh share jenis kulit anda (oily/kering/kombinasi/sensitif)? Saya bantu cadangkan ✨",
	models.LanguageEnglish: "Hi 👋 Welcome to NK Age-Reverse! How can I help your skin today? Could you share your skin type (oily/dry/combination/sensitive)? ✨",
}

// fallback asks exactly one qualifying question. Used whenever the model
// path fails or returns nothing.
var fallback = map[models.Language]string{
	models.LanguageMalay:   "Terima kasih kerana message NK Age-Reverse 💙 Boleh share jenis kulit anda (oily/kering/sensitif)? Saya bantu cadangkan.",
	models.LanguageEnglish: "Thanks for messaging NK Age-Reverse 💙 Could you share your skin type (oily/dry/sensitive)? I'll recommend something for you.",
}

// upsellQuestion closes every price reply with the set-size question.
var upsellQuestion = map[models.Language]string{
	models.LanguageMalay:   "Nak saya kirakan harga untuk full set sekali? 😊",
	models.LanguageEnglish: "Would you like me to quote the full set as well? 😊",
}

// templateFor picks the language variant, defaulting to Malay.
func templateFor(m map[models.Language]string, lang models.Language) string {
	if text, ok := m[lang]; ok {
		return text
	}
	return m[models.LanguageMalay]
}

// renderPriceReply enumerates the picked bundle with exact catalog prices
// and ends with the set upsell question.
func renderPriceReply(products []models.Product, lang models.Language) string {
	var b strings.Builder
	if lang == models.LanguageEnglish {
		b.WriteString("Here are our prices ✨\n")
	} else {
		b.WriteString("Ini harga produk kami ✨\n")
	}
	for _, p := range products {
		fmt.Fprintf(&b, "• %s — %s\n", p.Name, p.Price)
	}
	b.WriteString(templateFor(upsellQuestion, lang))
	return b.String()
}

// renderOrderReply lists the two canonical ordering channels and nothing
// else.
func renderOrderReply(orderURL, contactURL string, lang models.Language) string {
	if lang == models.LanguageEnglish {
		return fmt.Sprintf("You can order here 🛒\n• Website: %s\n• WhatsApp our team: %s", orderURL, contactURL)
	}
	return fmt.Sprintf("Boleh order di sini 🛒\n• Website: %s\n• WhatsApp team kami: %s", orderURL, contactURL)
}
