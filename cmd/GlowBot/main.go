package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/NKAgeReverse/GlowBot/internal/api"
	"github.com/NKAgeReverse/GlowBot/internal/bot"
	"github.com/NKAgeReverse/GlowBot/internal/flow"
	"github.com/NKAgeReverse/GlowBot/internal/followup"
	"github.com/NKAgeReverse/GlowBot/internal/genai"
	"github.com/NKAgeReverse/GlowBot/internal/messaging"
	"github.com/NKAgeReverse/GlowBot/internal/messenger"
	"github.com/NKAgeReverse/GlowBot/internal/notify"
	"github.com/NKAgeReverse/GlowBot/internal/policy"
	"github.com/NKAgeReverse/GlowBot/internal/store"
	"github.com/NKAgeReverse/GlowBot/internal/util"
	"github.com/NKAgeReverse/GlowBot/internal/whatsapp"
)

// Config holds environment configuration
type Config struct {
	VerifyToken     string
	PageAccessToken string
	GraphAPIURL     string
	ModelProvider   string
	OpenAIKey       string
	OpenAIModel     string
	OpenAIBaseURL   string
	BrandDomain     string
	OrderURL        string
	ContactURL      string
	DatabaseURL     string
	APIAddr         string
	FirstDelay      time.Duration
	SecondDelay     time.Duration
	WhatsAppEnabled bool
	WhatsAppDSN     string
}

// Flags holds command line flag values
type Flags struct {
	apiAddr     *string
	dbDSN       *string
	verifyToken *string
	pageToken   *string
	openaiKey   *string
	model       *string
	qrOutput    *string
	numeric     *bool
}

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	st := buildStore(flags)
	defer st.Close()

	states := flow.NewStoreBasedStateManager(st)
	dispatcher := policy.NewDispatcher(buildPolicyConfig(config), buildGenAIClient(config, flags))
	notifier := buildNotifier()

	msgService := messaging.NewMessengerService(buildMessengerClient(config, flags))
	followups := followup.NewScheduler(states, msgService, config.FirstDelay, config.SecondDelay)
	engine := bot.NewEngine(states, dispatcher, msgService, followups, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.WhatsAppEnabled {
		startWhatsAppChannel(ctx, config, flags, states, dispatcher, notifier)
	}

	server := api.NewServer(engine,
		api.WithAddr(*flags.apiAddr),
		api.WithVerifyToken(*flags.verifyToken),
	)

	go handleShutdown(cancel, server, followups, msgService)

	slog.Info("Bootstrapping GlowBot", "api_addr", *flags.apiAddr, "whatsapp_enabled", config.WhatsAppEnabled)
	if err := server.Run(); err != nil {
		slog.Error("GlowBot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("GlowBot exited successfully")
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		VerifyToken:     os.Getenv("VERIFY_TOKEN"),
		PageAccessToken: os.Getenv("PAGE_ACCESS_TOKEN"),
		GraphAPIURL:     os.Getenv("GRAPH_API_URL"),
		ModelProvider:   os.Getenv("MODEL_PROVIDER"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     os.Getenv("OPENAI_MODEL"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		BrandDomain:     os.Getenv("BRAND_DOMAIN"),
		OrderURL:        os.Getenv("ORDER_URL"),
		ContactURL:      os.Getenv("CONTACT_URL"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		APIAddr:         os.Getenv("API_ADDR"),
		FirstDelay:      util.ParseDurationEnv("FOLLOWUP_FIRST_DELAY", followup.DefaultFirstDelay),
		SecondDelay:     util.ParseDurationEnv("FOLLOWUP_SECOND_DELAY", followup.DefaultSecondDelay),
		WhatsAppEnabled: util.ParseBoolEnv("WHATSAPP_ENABLED", false),
		WhatsAppDSN:     os.Getenv("WHATSAPP_DB_DSN"),
	}

	if config.APIAddr == "" {
		config.APIAddr = api.DefaultAddr
	}

	slog.Debug("environment variables loaded",
		"VERIFY_TOKEN_SET", config.VerifyToken != "",
		"PAGE_ACCESS_TOKEN_SET", config.PageAccessToken != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"MODEL_PROVIDER", config.ModelProvider,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"API_ADDR", config.APIAddr,
		"WHATSAPP_ENABLED", config.WhatsAppEnabled)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN for conversation state (overrides $DATABASE_URL)"),
		verifyToken: flag.String("verify-token", config.VerifyToken, "webhook verification secret (overrides $VERIFY_TOKEN)"),
		pageToken:   flag.String("page-token", config.PageAccessToken, "Messenger page access token (overrides $PAGE_ACCESS_TOKEN)"),
		openaiKey:   flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		model:       flag.String("model", config.OpenAIModel, "completion model identifier (overrides $OPENAI_MODEL)"),
		qrOutput:    flag.String("qr-output", "", "path to write the WhatsApp login QR code"),
		numeric:     flag.Bool("numeric-code", false, "use numeric WhatsApp login code instead of QR code"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"apiAddr", *flags.apiAddr,
		"dbDSN_set", *flags.dbDSN != "",
		"verifyToken_set", *flags.verifyToken != "",
		"pageToken_set", *flags.pageToken != "",
		"openaiKeySet", *flags.openaiKey != "",
		"model", *flags.model)

	return flags
}

// buildStore selects the state store backend from the DSN: Postgres,
// SQLite, or in-memory when no DSN is configured.
func buildStore(flags Flags) store.Store {
	dsn := *flags.dbDSN
	if dsn == "" {
		slog.Info("No database DSN provided, using in-memory store (state lost on restart)")
		return store.NewInMemoryStore()
	}
	if store.DetectDSNType(dsn) == "postgres" {
		st, err := store.NewPostgresStore(store.WithPostgresDSN(dsn))
		if err != nil {
			slog.Error("Failed to open Postgres store, falling back to in-memory", "error", err)
			return store.NewInMemoryStore()
		}
		return st
	}
	st, err := store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
	if err != nil {
		slog.Error("Failed to open SQLite store, falling back to in-memory", "error", err)
		return store.NewInMemoryStore()
	}
	return st
}

// buildPolicyConfig applies environment overrides to the default link policy.
func buildPolicyConfig(config Config) policy.Config {
	cfg := policy.DefaultConfig()
	if config.BrandDomain != "" {
		cfg.BrandDomain = config.BrandDomain
	}
	if config.OrderURL != "" {
		cfg.OrderURL = config.OrderURL
	}
	if config.ContactURL != "" {
		cfg.ContactURL = config.ContactURL
	}
	return cfg
}

// buildGenAIClient constructs the delegated-reply client. A missing API
// key disables the delegated path; the policy then always uses fallbacks.
func buildGenAIClient(config Config, flags Flags) genai.ClientInterface {
	var opts []genai.Option
	if *flags.openaiKey != "" {
		opts = append(opts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.model != "" {
		opts = append(opts, genai.WithModel(*flags.model))
	}
	baseURL := config.OpenAIBaseURL
	if baseURL == "" {
		baseURL = genai.BaseURLForProvider(config.ModelProvider)
	}
	if baseURL != "" {
		opts = append(opts, genai.WithBaseURL(baseURL))
	}

	client, err := genai.NewClient(opts...)
	if err != nil {
		slog.Warn("GenAI client unavailable, delegated replies disabled", "error", err)
		return nil
	}
	return client
}

// buildMessengerClient constructs the Graph Send API client. A missing
// token yields a disabled sender: sends are logged and skipped, the
// process does not crash.
func buildMessengerClient(config Config, flags Flags) messenger.Sender {
	var opts []messenger.Option
	if *flags.pageToken != "" {
		opts = append(opts, messenger.WithAccessToken(*flags.pageToken))
	}
	if config.GraphAPIURL != "" {
		opts = append(opts, messenger.WithAPIURL(config.GraphAPIURL))
	}
	client, err := messenger.NewClient(opts...)
	if err != nil {
		slog.Error("Messenger client unavailable, outbound sends will be skipped", "error", err)
		return messenger.DisabledClient{}
	}
	return client
}

// buildNotifier constructs the hot-lead notifier; missing Twilio
// credentials disable it.
func buildNotifier() notify.Notifier {
	notifier, err := notify.NewTwilioNotifier()
	if err != nil {
		slog.Debug("Hot-lead notifier disabled", "error", err)
		return notify.NopNotifier{}
	}
	return notifier
}

// startWhatsAppChannel connects the optional WhatsApp channel and runs a
// second engine over it.
func startWhatsAppChannel(ctx context.Context, config Config, flags Flags, states flow.StateManager, dispatcher *policy.Dispatcher, notifier notify.Notifier) {
	var waOpts []whatsapp.Option
	if config.WhatsAppDSN != "" {
		waOpts = append(waOpts, whatsapp.WithDBDSN(config.WhatsAppDSN))
	}
	if *flags.qrOutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}

	client, err := whatsapp.NewClient(waOpts...)
	if err != nil {
		slog.Error("WhatsApp channel unavailable, continuing with Messenger only", "error", err)
		return
	}

	waService := messaging.NewWhatsAppService(client)
	waFollowups := followup.NewScheduler(states, waService, config.FirstDelay, config.SecondDelay)
	waEngine := bot.NewEngine(states, dispatcher, waService, waFollowups, notifier)

	if err := waService.Start(ctx); err != nil {
		slog.Error("WhatsApp service failed to start", "error", err)
		return
	}
	go waEngine.Listen(ctx)
	slog.Info("WhatsApp channel started")
}

// handleShutdown stops the server and background components on SIGINT/SIGTERM.
func handleShutdown(cancel context.CancelFunc, server *api.Server, followups *followup.Scheduler, msgService *messaging.MessengerService) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("Shutdown signal received", "signal", sig.String())

	cancel()
	followups.Stop()
	if err := msgService.Stop(); err != nil {
		slog.Error("Failed to stop messenger service", "error", err)
	}

	ctx, cancelTimeout := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelTimeout()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
