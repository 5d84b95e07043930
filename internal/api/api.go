package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/thesapansharma/Fittr/internal/coach"
	"github.com/thesapansharma/Fittr/internal/genai"
	"github.com/thesapansharma/Fittr/internal/messaging"
	"github.com/thesapansharma/Fittr/internal/models"
	"github.com/thesapansharma/Fittr/internal/reminder"
	"github.com/thesapansharma/Fittr/internal/scheduler"
	"github.com/thesapansharma/Fittr/internal/store"
	"github.com/thesapansharma/Fittr/internal/twiliowhatsapp"
	"github.com/thesapansharma/Fittr/internal/whatsapp"
)

// Defaults for the API server.
const (
	DefaultAddr     = ":8080"
	DefaultTimezone = "Asia/Kolkata"
	// DefaultShutdownTimeout bounds graceful HTTP shutdown
	DefaultShutdownTimeout = 10 * time.Second
)

// Supported messaging providers.
const (
	ProviderWhatsApp = "whatsapp"
	ProviderTwilio   = "twilio"
	ProviderTelegram = "telegram"
)

// Opts holds the full service configuration assembled by the command entry
// point.
type Opts struct {
	Addr          string
	AdminToken    string
	Provider      string
	TelegramToken string
	StoreDSN      string
	OpenAIKey     string
	Timezone      string

	WhatsAppOpts []whatsapp.Option
	TwilioOpts   []twiliowhatsapp.Option
	GenAIOpts    []genai.Option
}

// Option configures the service.
type Option func(*Opts)

// WithAddr sets the HTTP listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithAdminToken sets the token required by the admin endpoints.
func WithAdminToken(token string) Option {
	return func(o *Opts) { o.AdminToken = token }
}

// WithProvider selects the messaging transport.
func WithProvider(provider string) Option {
	return func(o *Opts) { o.Provider = provider }
}

// WithTelegramToken sets the Telegram bot token.
func WithTelegramToken(token string) Option {
	return func(o *Opts) { o.TelegramToken = token }
}

// WithStoreDSN sets the application database DSN.
func WithStoreDSN(dsn string) Option {
	return func(o *Opts) { o.StoreDSN = dsn }
}

// WithOpenAIKey enables GenAI fallback replies.
func WithOpenAIKey(key string) Option {
	return func(o *Opts) { o.OpenAIKey = key }
}

// WithTimezone sets the coaching timezone.
func WithTimezone(tz string) Option {
	return func(o *Opts) { o.Timezone = tz }
}

// WithWhatsAppOpts forwards options to the WhatsApp client.
func WithWhatsAppOpts(opts ...whatsapp.Option) Option {
	return func(o *Opts) { o.WhatsAppOpts = append(o.WhatsAppOpts, opts...) }
}

// WithTwilioOpts forwards options to the Twilio client.
func WithTwilioOpts(opts ...twiliowhatsapp.Option) Option {
	return func(o *Opts) { o.TwilioOpts = append(o.TwilioOpts, opts...) }
}

// WithGenAIOpts forwards options to the GenAI client.
func WithGenAIOpts(opts ...genai.Option) Option {
	return func(o *Opts) { o.GenAIOpts = append(o.GenAIOpts, opts...) }
}

// Server holds the handler dependencies for the HTTP endpoints.
type Server struct {
	store        store.Store
	msgService   messaging.Service
	engine       coachEngine
	adminToken   string
	registration *registration
	clock        func() time.Time
}

// coachEngine is the reply surface the simulate endpoint needs.
type coachEngine interface {
	HandleIncoming(ctx context.Context, identity, text string) (string, error)
}

// NewServer creates an API server over the given dependencies.
func NewServer(st store.Store, msgService messaging.Service, engine coachEngine, adminToken string) *Server {
	return &Server{
		store:        st,
		msgService:   msgService,
		engine:       engine,
		adminToken:   adminToken,
		registration: newRegistration(st, msgService),
		clock:        time.Now,
	}
}

// Routes builds the HTTP mux for the server.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)

	mux.HandleFunc("/api/register/medical-options", s.registration.medicalOptionsHandler)
	mux.HandleFunc("/api/register/office-timing-options", s.registration.officeTimingOptionsHandler)
	mux.HandleFunc("/api/register/capacity", s.registration.capacityHandler)
	mux.HandleFunc("/api/register/send-otp", s.registration.sendOTPHandler)
	mux.HandleFunc("/api/register/verify-otp", s.registration.verifyOTPHandler)
	mux.HandleFunc("/api/register", s.registration.registerHandler)

	mux.HandleFunc("/api/admin/overview", s.requireAdmin(s.adminOverviewHandler))
	mux.HandleFunc("/api/admin/users", s.requireAdmin(s.adminUsersHandler))
	mux.HandleFunc("/api/admin/messages", s.requireAdmin(s.adminMessagesHandler))
	mux.HandleFunc("/api/admin/simulate", s.requireAdmin(s.adminSimulateHandler))

	if twilioSvc, ok := s.msgService.(*messaging.TwilioService); ok {
		mux.HandleFunc("/webhook/twilio", twilioSvc.WebhookHandler)
		slog.Debug("Twilio webhook route registered")
	}

	return mux
}

// Run wires the full service together and blocks until the context is
// cancelled: store, messaging transport, coach, scheduler, reminder passes,
// and the HTTP server.
func Run(ctx context.Context, opts ...Option) error {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderWhatsApp
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}

	st, err := openStore(cfg.StoreDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	msgService, err := buildMessagingService(cfg)
	if err != nil {
		return err
	}

	coachOpts := []coach.Option{coach.WithLocation(loc)}
	if cfg.OpenAIKey != "" {
		genaiOpts := append([]genai.Option{genai.WithAPIKey(cfg.OpenAIKey)}, cfg.GenAIOpts...)
		gen, err := genai.NewClient(genaiOpts...)
		if err != nil {
			return fmt.Errorf("failed to create GenAI client: %w", err)
		}
		coachOpts = append(coachOpts, coach.WithGenAI(gen))
		slog.Info("GenAI fallback replies enabled")
	} else {
		slog.Info("GenAI fallback replies disabled, using static help text")
	}
	engine := coach.NewCoach(st, coachOpts...)

	if err := msgService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start messaging service: %w", err)
	}
	defer msgService.Stop()

	router := messaging.NewRouter(msgService, engine)
	router.Start(ctx)

	sched := scheduler.NewScheduler(scheduler.WithLocation(loc))
	defer sched.Stop()
	reminders := reminder.NewService(st, msgService, reminder.WithLocation(loc))
	if err := reminders.Register(sched); err != nil {
		return err
	}

	server := NewServer(st, msgService, engine, cfg.AdminToken)
	httpServer := &http.Server{Addr: cfg.Addr, Handler: server.Routes()}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", cfg.Addr, "provider", cfg.Provider)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown failed", "error", err)
			return err
		}
		return nil
	case err := <-errCh:
		slog.Error("HTTP server failed", "error", err)
		return err
	}
}

// openStore selects the backend from the DSN.
func openStore(dsn string) (store.Store, error) {
	if store.DetectDSNType(dsn) == "postgres" {
		st, err := store.NewPostgresStore(store.WithPostgresDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("failed to open Postgres store: %w", err)
		}
		slog.Info("Using Postgres store")
		return st, nil
	}
	st, err := store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite store: %w", err)
	}
	slog.Info("Using SQLite store", "dsn_set", dsn != "")
	return st, nil
}

// buildMessagingService constructs the transport named by the provider.
func buildMessagingService(cfg Opts) (messaging.Service, error) {
	switch cfg.Provider {
	case ProviderTelegram:
		svc, err := messaging.NewTelegramService(cfg.TelegramToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create Telegram service: %w", err)
		}
		return svc, nil
	case ProviderTwilio:
		client, err := twiliowhatsapp.NewClient(cfg.TwilioOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Twilio client: %w", err)
		}
		return messaging.NewTwilioService(client), nil
	case ProviderWhatsApp:
		client, err := whatsapp.NewClient(cfg.WhatsAppOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create WhatsApp client: %w", err)
		}
		return messaging.NewWhatsAppService(client), nil
	default:
		return nil, fmt.Errorf("unknown messaging provider %q", cfg.Provider)
	}
}

// healthHandler reports service status and user counts.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	counts, err := s.store.Counts()
	if err != nil {
		slog.Error("Health check failed to read counts", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Store unavailable"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"status":          "ok",
		"users":           counts.Users,
		"onboarded_users": counts.OnboardedUsers,
	}))
}
