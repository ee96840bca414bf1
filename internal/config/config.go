// internal/config/config.go
package config

import (
	"errors"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"EntryBot/internal/constants"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	TelegramToken    string
	TelegramEndpoint string // формат "https://host/bot%s/%s"; пусто - api.telegram.org
	DatabaseURL      string
	AppEnv           string
	BotUsername      string
	AccessCode       string
	PollInterval     time.Duration
	PollTimeout      time.Duration
	PersistWatermark bool
	NotifyTemplate   string
	SheetName        string
	HTTPPort         string
	FormURL          string
	AllowedOrigins   []string
}

// Debug включает подробное логирование Telegram-клиента.
func (c *Config) Debug() bool {
	return c.AppEnv == "dev"
}

// LoadConfig загружает конфигурацию из переменных окружения.
// Некорректные значения заменяются значениями по умолчанию с предупреждением в лог.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		TelegramToken:    os.Getenv("TELEGRAM_APITOKEN"),
		TelegramEndpoint: strings.TrimSpace(os.Getenv("TELEGRAM_API_ENDPOINT")),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AppEnv:           os.Getenv("ENV"),
		BotUsername:      strings.TrimPrefix(strings.TrimSpace(os.Getenv("BOT_USERNAME")), "@"),
		AccessCode:       os.Getenv("ACCESS_CODE"),
		NotifyTemplate:   os.Getenv("NOTIFY_TEMPLATE"),
		SheetName:        strings.TrimSpace(os.Getenv("SHEET_NAME")),
		HTTPPort:         strings.TrimSpace(os.Getenv("PORT")),
		FormURL:          strings.TrimSpace(os.Getenv("FORM_URL")),
	}

	cfg.PollInterval = durationEnv("POLL_INTERVAL", constants.DefaultPollInterval)
	cfg.PollTimeout = durationEnv("POLL_TIMEOUT", constants.DefaultPollTimeout)

	if raw := os.Getenv("POLL_PERSIST_WATERMARK"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			log.Printf("Предупреждение: некорректное значение POLL_PERSIST_WATERMARK ('%s'): %v. Используется false.", raw, err)
		}
		cfg.PersistWatermark = v
	}

	if cfg.DatabaseURL == "" {
		log.Printf("Предупреждение: DATABASE_URL не установлен, используется %s.", constants.DefaultDatabaseURL)
		cfg.DatabaseURL = constants.DefaultDatabaseURL
	} else if _, err := url.Parse(cfg.DatabaseURL); err != nil {
		return nil, errors.New("ошибка парсинга DATABASE_URL")
	}

	if cfg.SheetName == "" {
		cfg.SheetName = constants.DefaultSheetName
	}
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = constants.DefaultHTTPPort
	}

	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"https://*", "http://*"}
	}

	if cfg.TelegramToken == "" {
		log.Println("Предупреждение: TELEGRAM_APITOKEN не установлен.")
	}
	if strings.TrimSpace(cfg.AccessCode) == "" {
		log.Println("Предупреждение: ACCESS_CODE не установлен.")
	}
	if cfg.FormURL == "" {
		log.Println("Предупреждение: FORM_URL не установлен. QR-код формы недоступен.")
	}

	log.Println("Конфигурация загружена.")
	return cfg, nil
}

// ValidateForBot проверяет параметры, без которых бот не может работать.
func (c *Config) ValidateForBot() error {
	var errs []error
	if c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_APITOKEN не установлен"))
	}
	if strings.TrimSpace(c.AccessCode) == "" {
		errs = append(errs, errors.New("ACCESS_CODE не установлен"))
	}
	return errors.Join(errs...)
}

// RedactedDatabaseURL возвращает DATABASE_URL без пароля, для логов.
func (c *Config) RedactedDatabaseURL() string {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Предупреждение: некорректное значение %s ('%s'). Используется %s.", key, raw, def)
		return def
	}
	return d
}
