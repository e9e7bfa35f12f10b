package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL        string
	StoreDriver        string // postgres or memory
	LogLevel           string
	Environment        string
	HTTPAddr           string
	DefaultPhoneRegion string // ISO 3166-1 alpha-2 region for numbers without prefix
	PhoneValidation    string // parse, possible or valid
	WhatsAppTransport  string // registered transport name, empty for none
	CronSpecQueue      string // For draining the outgoing WhatsApp queue
	QueueBatchSize     int
	TelegramToken      string // optional, enables the admin bot
	AdminTelegramID    int64
	DefaultAuthorID    int64 // author of messages posted by server actions
	ThreadModels       []string
	TransientModels    []string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.StoreDriver = strings.ToLower(os.Getenv("STORE_DRIVER"))
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = StoreDriverPostgres
	}
	if cfg.StoreDriver != StoreDriverPostgres && cfg.StoreDriver != StoreDriverMemory {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q (want %s or %s)", cfg.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" && cfg.StoreDriver == StoreDriverPostgres {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.DefaultPhoneRegion = strings.ToUpper(os.Getenv("DEFAULT_PHONE_REGION"))

	cfg.PhoneValidation = strings.ToLower(os.Getenv("PHONE_VALIDATION"))
	switch cfg.PhoneValidation {
	case "":
		cfg.PhoneValidation = "parse"
	case "parse", "possible", "valid":
	default:
		return nil, fmt.Errorf("invalid PHONE_VALIDATION %q", cfg.PhoneValidation)
	}

	cfg.WhatsAppTransport = os.Getenv("WHATSAPP_TRANSPORT")

	cfg.CronSpecQueue = os.Getenv("CRON_SPEC_QUEUE")
	if cfg.CronSpecQueue == "" {
		cfg.CronSpecQueue = "*/1 * * * *" // Default: every minute
	}

	cfg.QueueBatchSize, err = intEnv("QUEUE_BATCH_SIZE", 100)
	if err != nil {
		return nil, err
	}
	if cfg.QueueBatchSize <= 0 {
		return nil, fmt.Errorf("QUEUE_BATCH_SIZE must be positive, got %d", cfg.QueueBatchSize)
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken != "" {
		adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
		if adminIDStr == "" {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
		}
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	authorID, err := intEnv("DEFAULT_AUTHOR_ID", 1)
	if err != nil {
		return nil, err
	}
	cfg.DefaultAuthorID = int64(authorID)

	// Business models able to receive messages, e.g. "crm.lead,project.task".
	cfg.ThreadModels = listEnv("THREAD_MODELS")
	cfg.TransientModels = listEnv("TRANSIENT_MODELS")

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func listEnv(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
