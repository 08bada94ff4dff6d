package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Режимы получения обновлений
const (
	ModeWebhook = "webhook"
	ModePolling = "polling"
)

type Config struct {
	// Отсутствие токена - фатальная ошибка старта
	TelegramToken string `envconfig:"TELEGRAM_TOKEN" required:"true"`

	Mode       string `envconfig:"BOT_MODE" default:"webhook"`
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`
	// Базовый URL для регистрации webhook; пустой - webhook не регистрируем
	WebhookURL string `envconfig:"WEBHOOK_URL"`

	SQLitePath  string `envconfig:"SQLITE_DB_PATH" default:"./data/financebot.db"`
	SupabaseURL string `envconfig:"SUPABASE_URL"`
	SupabaseKey string `envconfig:"SUPABASE_KEY"`

	// Код валюты для записей без явной валюты; пустой - валюта по умолчанию
	// из справочника
	DefaultCurrency string `envconfig:"DEFAULT_CURRENCY"`

	StateTTL           time.Duration `envconfig:"STATE_TTL" default:"15m"`
	StateSweepInterval time.Duration `envconfig:"STATE_SWEEP_INTERVAL" default:"1m"`
}

func LoadConfig() (*Config, error) {
	// .env опционален: в проде переменные приходят из окружения
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.Mode != ModeWebhook && cfg.Mode != ModePolling {
		return nil, fmt.Errorf("load config: unknown BOT_MODE %q", cfg.Mode)
	}

	return &cfg, nil
}
