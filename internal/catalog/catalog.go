// Package catalog holds the static NK Age-Reverse product catalog.
//
// The catalog is loaded at startup and read-only afterward. It is the
// single source of truth for product names, prices and URLs; every reply
// path, scripted or delegated, must agree with it.
package catalog

import (
	"fmt"
	"strings"

	"github.com/NKAgeReverse/GlowBot/internal/models"
)

// products is the immutable catalog. Prices are display strings in MYR.
var products = []models.Product{
	{
		Name:      "NK Age-Reverse Cleanser",
		Category:  "cleanser",
		Price:     "RM59",
		SkinTypes: []models.SkinType{models.SkinTypeOily, models.SkinTypeCombination, models.SkinTypeSensitive, models.SkinTypeAcneProne, models.SkinTypeNormal},
		Benefits:  []string{"membersihkan kulit secara lembut", "sesuai untuk kulit sensitif"},
		URL:       "https://nkagereverse.com/products/cleanser",
	},
	{
		Name:      "NK Age-Reverse Serum",
		Category:  "serum",
		Price:     "RM129",
		SkinTypes: []models.SkinType{models.SkinTypeDry, models.SkinTypeCombination, models.SkinTypeNormal, models.SkinTypeSensitive},
		Benefits:  []string{"mengurangkan garis halus", "mencerahkan kulit kusam"},
		URL:       "https://nkagereverse.com/products/serum",
	},
	{
		Name:      "NK Age-Reverse Moisturiser",
		Category:  "moisturiser",
		Price:     "RM99",
		SkinTypes: []models.SkinType{models.SkinTypeDry, models.SkinTypeSensitive, models.SkinTypeNormal},
		Benefits:  []string{"melembapkan kulit kering", "mengunci kelembapan"},
		URL:       "https://nkagereverse.com/products/moisturiser",
	},
	{
		Name:      "NK Age-Reverse Full Set",
		Category:  "set",
		Price:     "RM249",
		SkinTypes: []models.SkinType{models.SkinTypeDry, models.SkinTypeOily, models.SkinTypeCombination, models.SkinTypeSensitive, models.SkinTypeAcneProne, models.SkinTypeNormal},
		Benefits:  []string{"rutin lengkap 3 langkah", "jimat berbanding beli asing"},
		URL:       "https://nkagereverse.com/products/full-set",
	},
}

// All returns the full catalog.
func All() []models.Product {
	return products
}

// byCategory returns the catalog entry for a category.
func byCategory(category string) models.Product {
	for _, p := range products {
		if p.Category == category {
			return p
		}
	}
	return models.Product{}
}

// Pick returns the deterministic 1-2 product bundle for a skin/concern
// combination. The bundles are fixed: the same inputs always yield the
// same products in the same order.
func Pick(skin models.SkinType, concern models.Concern) []models.Product {
	// Concern-led picks take priority: the concern names the treatment.
	switch concern {
	case models.ConcernFineLines, models.ConcernDullness, models.ConcernScarring:
		return []models.Product{byCategory("serum"), byCategory("moisturiser")}
	case models.ConcernAcne, models.ConcernPores:
		return []models.Product{byCategory("cleanser"), byCategory("serum")}
	case models.ConcernDryness:
		return []models.Product{byCategory("moisturiser"), byCategory("serum")}
	}

	// Skin-type-led picks when no concern is known yet.
	switch skin {
	case models.SkinTypeOily, models.SkinTypeAcneProne, models.SkinTypeCombination:
		// Cleanser-first bundle for oil-prone skin.
		return []models.Product{byCategory("cleanser"), byCategory("serum")}
	case models.SkinTypeDry, models.SkinTypeSensitive:
		return []models.Product{byCategory("moisturiser"), byCategory("cleanser")}
	case models.SkinTypeNormal:
		return []models.Product{byCategory("serum"), byCategory("cleanser")}
	}

	// Nothing known: lead with the serum, the hero product.
	return []models.Product{byCategory("serum")}
}

// ForPrompt renders the catalog verbatim for the model system prompt so the
// delegated path can only repeat, never invent, product facts.
func ForPrompt() string {
	var b strings.Builder
	b.WriteString("Product catalog (the only products, prices and links you may mention):\n")
	for _, p := range products {
		fmt.Fprintf(&b, "- %s (%s): %s. Benefits: %s. Link: %s\n",
			p.Name, p.Category, p.Price, strings.Join(p.Benefits, "; "), p.URL)
	}
	return b.String()
}
