package catalog

import (
	"strings"
	"testing"

	"github.com/NKAgeReverse/GlowBot/internal/models"
)

func TestAllHasFourProducts(t *testing.T) {
	all := All()
	if len(all) != 4 {
		t.Fatalf("expected 4 products, got %d", len(all))
	}
	for _, p := range all {
		if p.Name == "" || p.Price == "" || p.URL == "" {
			t.Errorf("incomplete product entry: %+v", p)
		}
		if !strings.HasPrefix(p.URL, "https://nkagereverse.com/") {
			t.Errorf("product URL off-domain: %s", p.URL)
		}
	}
}

func TestPickOilySkinLeadsWithCleanser(t *testing.T) {
	got := Pick(models.SkinTypeOily, "")
	if len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}
	if got[0].Category != "cleanser" || got[1].Category != "serum" {
		t.Errorf("bundle = [%s, %s], want [cleanser, serum]", got[0].Category, got[1].Category)
	}
}

func TestPickConcernOverridesSkinType(t *testing.T) {
	// Fine lines names the treatment regardless of skin type.
	got := Pick(models.SkinTypeOily, models.ConcernFineLines)
	if got[0].Category != "serum" {
		t.Errorf("expected serum-led bundle for fine lines, got %s", got[0].Category)
	}
}

func TestPickDrySkin(t *testing.T) {
	got := Pick(models.SkinTypeDry, "")
	if got[0].Category != "moisturiser" {
		t.Errorf("expected moisturiser-led bundle for dry skin, got %s", got[0].Category)
	}
}

func TestPickNothingKnown(t *testing.T) {
	got := Pick("", "")
	if len(got) != 1 || got[0].Category != "serum" {
		t.Errorf("expected serum-only default bundle, got %+v", got)
	}
}

func TestPickDeterministic(t *testing.T) {
	first := Pick(models.SkinTypeCombination, models.ConcernAcne)
	for i := 0; i < 5; i++ {
		again := Pick(models.SkinTypeCombination, models.ConcernAcne)
		if len(again) != len(first) {
			t.Fatal("bundle length changed between calls")
		}
		for j := range again {
			if again[j].Name != first[j].Name {
				t.Fatalf("bundle order changed between calls: %s vs %s", again[j].Name, first[j].Name)
			}
		}
	}
}

func TestForPromptContainsEveryProduct(t *testing.T) {
	rendered := ForPrompt()
	for _, p := range All() {
		if !strings.Contains(rendered, p.Name) {
			t.Errorf("prompt render missing product %s", p.Name)
		}
		if !strings.Contains(rendered, p.Price) {
			t.Errorf("prompt render missing price %s", p.Price)
		}
		if !strings.Contains(rendered, p.URL) {
			t.Errorf("prompt render missing URL %s", p.URL)
		}
	}
}
