// Package config loads process configuration from the environment, following
// the teacher's godotenv.Load()-then-os.Getenv pattern in cmd/server/main.go,
// generalized to the wider set of external credentials this system needs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is every environment-sourced setting the process needs at startup.
type Config struct {
	DatabaseURL string
	RedisAddr   string
	RedisDB     int

	LLMAPIKey string

	STTProvider string
	STTAPIKey   string
	TTSProvider string
	TTSAPIKey   string

	WhatsAppPhoneNumberID string
	WhatsAppAccessToken   string
	WhatsAppVerifyToken   string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	ObjectStoreEndpoint  string
	ObjectStoreAccessKey string
	ObjectStoreSecretKey string
	ObjectStoreBucket    string

	ShopID       string
	ShopName     string
	TZ           string
	AdminEmail   string
	ConvTTL      time.Duration
	HTTPAddr     string
	MetricsAddr  string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Load reads Config from the environment. DATABASE_URL is the only required
// field and produces an error when missing; every other field falls back to a
// default or stays empty.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getenvInt("REDIS_DB", 0),

		LLMAPIKey: os.Getenv("OPENAI_API_KEY"),

		STTProvider: getenv("STT_PROVIDER", "deepgram"),
		STTAPIKey:   os.Getenv("STT_API_KEY"),
		TTSProvider: getenv("TTS_PROVIDER", "elevenlabs"),
		TTSAPIKey:   os.Getenv("TTS_API_KEY"),

		WhatsAppPhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		WhatsAppAccessToken:   os.Getenv("WHATSAPP_ACCESS_TOKEN"),
		WhatsAppVerifyToken:   os.Getenv("WHATSAPP_VERIFY_TOKEN"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getenvInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		ObjectStoreEndpoint:  os.Getenv("OBJECT_STORE_ENDPOINT"),
		ObjectStoreAccessKey: os.Getenv("OBJECT_STORE_ACCESS_KEY"),
		ObjectStoreSecretKey: os.Getenv("OBJECT_STORE_SECRET_KEY"),
		ObjectStoreBucket:    getenv("OBJECT_STORE_BUCKET", "dukaan-invoices"),

		ShopID:      getenv("SHOP_ID", "default"),
		ShopName:    getenv("SHOP_NAME", ""),
		TZ:          getenv("TZ", "Asia/Kolkata"),
		AdminEmail:  os.Getenv("ADMIN_EMAIL"),
		ConvTTL:     time.Duration(getenvInt("CONV_TTL_HOURS", 4)) * time.Hour,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		MetricsAddr: getenv("METRICS_ADDR", ":9090"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}
