package main

import (
	"os"
	"testing"
	"time"

	"github.com/NKAgeReverse/GlowBot/internal/api"
	"github.com/NKAgeReverse/GlowBot/internal/followup"
	"github.com/NKAgeReverse/GlowBot/internal/policy"
	"github.com/NKAgeReverse/GlowBot/internal/store"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VERIFY_TOKEN", "PAGE_ACCESS_TOKEN", "GRAPH_API_URL",
		"MODEL_PROVIDER", "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
		"BRAND_DOMAIN", "ORDER_URL", "CONTACT_URL",
		"DATABASE_URL", "API_ADDR",
		"FOLLOWUP_FIRST_DELAY", "FOLLOWUP_SECOND_DELAY",
		"WHATSAPP_ENABLED", "WHATSAPP_DB_DSN",
	} {
		os.Unsetenv(key)
	}
}

func TestLoadEnvironmentConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	config := loadEnvironmentConfig()

	if config.APIAddr != api.DefaultAddr {
		t.Errorf("API addr = %q, want default %q", config.APIAddr, api.DefaultAddr)
	}
	if config.FirstDelay != followup.DefaultFirstDelay {
		t.Errorf("first delay = %v, want default %v", config.FirstDelay, followup.DefaultFirstDelay)
	}
	if config.SecondDelay != followup.DefaultSecondDelay {
		t.Errorf("second delay = %v, want default %v", config.SecondDelay, followup.DefaultSecondDelay)
	}
	if config.WhatsAppEnabled {
		t.Error("WhatsApp channel should default to disabled")
	}
}

func TestLoadEnvironmentConfigOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("API_ADDR", ":9000")
	t.Setenv("FOLLOWUP_FIRST_DELAY", "5m")
	t.Setenv("FOLLOWUP_SECOND_DELAY", "30m")
	t.Setenv("WHATSAPP_ENABLED", "true")
	t.Setenv("VERIFY_TOKEN", "tok")

	config := loadEnvironmentConfig()

	if config.APIAddr != ":9000" {
		t.Errorf("API addr = %q", config.APIAddr)
	}
	if config.FirstDelay != 5*time.Minute || config.SecondDelay != 30*time.Minute {
		t.Errorf("delays = %v / %v", config.FirstDelay, config.SecondDelay)
	}
	if !config.WhatsAppEnabled {
		t.Error("WhatsApp channel should be enabled")
	}
	if config.VerifyToken != "tok" {
		t.Errorf("verify token = %q", config.VerifyToken)
	}
}

func TestBuildPolicyConfigOverrides(t *testing.T) {
	config := Config{
		BrandDomain: "example-brand.com",
		OrderURL:    "https://example-brand.com/buy",
		ContactURL:  "https://wa.me/600000000",
	}

	cfg := buildPolicyConfig(config)
	if cfg.BrandDomain != "example-brand.com" {
		t.Errorf("brand domain = %q", cfg.BrandDomain)
	}
	if cfg.OrderURL != "https://example-brand.com/buy" {
		t.Errorf("order URL = %q", cfg.OrderURL)
	}

	// Unset fields keep the defaults.
	def := policy.DefaultConfig()
	cfg = buildPolicyConfig(Config{})
	if cfg.BrandDomain != def.BrandDomain || cfg.OrderURL != def.OrderURL {
		t.Errorf("defaults not preserved: %+v", cfg)
	}
}

func TestBuildStoreFallsBackToMemory(t *testing.T) {
	empty := ""
	st := buildStore(Flags{dbDSN: &empty})
	defer st.Close()
	if _, ok := st.(*store.InMemoryStore); !ok {
		t.Errorf("expected in-memory store for empty DSN, got %T", st)
	}
}
