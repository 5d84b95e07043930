package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/thesapansharma/Fittr/internal/api"
	"github.com/thesapansharma/Fittr/internal/lockfile"
	"github.com/thesapansharma/Fittr/internal/twiliowhatsapp"
	"github.com/thesapansharma/Fittr/internal/util"
	"github.com/thesapansharma/Fittr/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Fittr state data
	DefaultStateDir = "/var/lib/fittr"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "fittr.db"
	// DefaultWhatsAppDBFileName is the default whatsmeow session database filename
	DefaultWhatsAppDBFileName = "whatsmeow.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiOpts := buildAPIOptions(config, flags)

	slog.Info("Bootstrapping Fittr", "provider", *flags.provider)
	if err := api.Run(ctx, apiOpts...); err != nil {
		slog.Error("Fittr failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Fittr exited successfully")
}

// Config holds environment configuration
type Config struct {
	Provider      string
	DatabaseURL   string
	WhatsAppDSN   string
	StateDir      string
	OpenAIKey     string
	TelegramToken string
	AdminToken    string
	APIAddr       string
	Timezone      string
}

// Flags holds command line flag values
type Flags struct {
	qrOutput *string
	numeric  *bool
	stateDir *string
	dbDSN    *string
	waDSN    *string
	provider *string
	apiAddr  *string
	timezone *string
}

// initializeLogger sets up structured logging
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("FITTR_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
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
		Provider:      os.Getenv("COMMUNICATION_PROVIDER"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		WhatsAppDSN:   os.Getenv("WHATSAPP_DB_DSN"),
		StateDir:      os.Getenv("FITTR_STATE_DIR"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdminToken:    os.Getenv("ADMIN_TOKEN"),
		APIAddr:       os.Getenv("API_ADDR"),
		Timezone:      os.Getenv("FITTR_TIMEZONE"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No FITTR_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = filepath.Join(config.StateDir, DefaultWhatsAppDBFileName)
	}

	slog.Debug("environment variables loaded",
		"COMMUNICATION_PROVIDER", config.Provider,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"WHATSAPP_DB_DSN_SET", config.WhatsAppDSN != "",
		"FITTR_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"TELEGRAM_BOT_TOKEN_SET", config.TelegramToken != "",
		"ADMIN_TOKEN_SET", config.AdminToken != "",
		"API_ADDR", config.APIAddr,
		"FITTR_TIMEZONE", config.Timezone)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		qrOutput: flag.String("qr-output", "", "path to write WhatsApp login QR code"),
		numeric:  flag.Bool("numeric-code", false, "use numeric WhatsApp login code instead of QR code"),
		stateDir: flag.String("state-dir", config.StateDir, "state directory for Fittr data (overrides $FITTR_STATE_DIR)"),
		dbDSN:    flag.String("db-dsn", config.DatabaseURL, "application database DSN (overrides $DATABASE_URL)"),
		waDSN:    flag.String("whatsapp-db-dsn", config.WhatsAppDSN, "whatsmeow session database DSN (overrides $WHATSAPP_DB_DSN)"),
		provider: flag.String("provider", config.Provider, "messaging provider: whatsapp, twilio, or telegram (overrides $COMMUNICATION_PROVIDER)"),
		apiAddr:  flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		timezone: flag.String("timezone", config.Timezone, "coaching timezone (overrides $FITTR_TIMEZONE)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"qrOutput", *flags.qrOutput,
		"numeric", *flags.numeric,
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"waDSN_set", *flags.waDSN != "",
		"provider", *flags.provider,
		"apiAddr", *flags.apiAddr,
		"timezone", *flags.timezone)

	// Follow a moved state directory for default file DSNs
	if *flags.stateDir != config.StateDir {
		if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) {
			*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		}
		if *flags.waDSN == filepath.Join(config.StateDir, DefaultWhatsAppDBFileName) {
			*flags.waDSN = filepath.Join(*flags.stateDir, DefaultWhatsAppDBFileName)
		}
	}

	return flags
}

// ensureDirectoriesExist creates directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	for _, dsn := range []string{*flags.dbDSN, *flags.waDSN} {
		if dsn == "" || strings.Contains(dsn, "://") || strings.Contains(dsn, "host=") {
			continue
		}
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "dir", dir)
			return err
		}
	}
	return nil
}

// buildAPIOptions assembles the full service configuration
func buildAPIOptions(config Config, flags Flags) []api.Option {
	opts := []api.Option{
		api.WithStoreDSN(*flags.dbDSN),
	}
	if *flags.provider != "" {
		opts = append(opts, api.WithProvider(strings.ToLower(*flags.provider)))
	}
	if *flags.apiAddr != "" {
		opts = append(opts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.timezone != "" {
		opts = append(opts, api.WithTimezone(*flags.timezone))
	}
	if config.OpenAIKey != "" {
		opts = append(opts, api.WithOpenAIKey(config.OpenAIKey))
	}
	if config.TelegramToken != "" {
		opts = append(opts, api.WithTelegramToken(config.TelegramToken))
	}
	if config.AdminToken != "" {
		opts = append(opts, api.WithAdminToken(config.AdminToken))
	}

	var waOpts []whatsapp.Option
	if *flags.waDSN != "" {
		waOpts = append(waOpts, whatsapp.WithDBDSN(*flags.waDSN))
	}
	if *flags.qrOutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}
	if len(waOpts) > 0 {
		opts = append(opts, api.WithWhatsAppOpts(waOpts...))
	}

	// Twilio credentials come from the standard env vars inside the client;
	// only the from-number needs forwarding when set explicitly.
	if from := os.Getenv("TWILIO_FROM_NUMBER"); from != "" {
		opts = append(opts, api.WithTwilioOpts(twiliowhatsapp.WithFromWhats(from)))
	}

	return opts
}
