package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
)

type Config struct {
	ServerPort  string
	LogLevel    string
	DatabaseURL string

	JWTSecret     []byte
	RefreshSecret []byte

	RedisAddr    string
	KafkaBrokers []string
	EventBuffer  int

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	LockoutMaxAttempts int
	LockoutWindow      time.Duration

	CSRFEnabled  bool
	CookieSecure bool
}

const minSecretLen = 32

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: could not load .env: %v", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		ServerPort:  pkgconfig.EnvDefault("SERVER_PORT", "8080"),
		LogLevel:    pkgconfig.EnvDefault("LOG_LEVEL", "info"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		RefreshSecret: []byte(os.Getenv("REFRESH_SECRET")),

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: pkgconfig.CSV(os.Getenv("KAFKA_BROKERS")),
		EventBuffer:  pkgconfig.EnvIntDefault("EVENT_BUFFER", 256),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    pkgconfig.EnvDefault("ES_INDEX", "products"),

		LockoutMaxAttempts: pkgconfig.EnvIntDefault("LOCKOUT_MAX_ATTEMPTS", 5),
		LockoutWindow:      pkgconfig.EnvDurationDefault("LOCKOUT_WINDOW", 15*time.Minute),

		CSRFEnabled:  pkgconfig.EnvDefault("CSRF_ENABLED", "true") == "true",
		CookieSecure: os.Getenv("COOKIE_SECURE") == "true",
	}

	if err := errors.Join(
		pkgconfig.NonEmpty(cfg.DatabaseURL, "DATABASE_URL"),
		pkgconfig.NonEmpty(string(cfg.JWTSecret), "JWT_SECRET"),
		pkgconfig.NonEmpty(string(cfg.RefreshSecret), "REFRESH_SECRET"),
	); err != nil {
		return nil, err
	}
	if err := errors.Join(
		pkgconfig.MinLen(cfg.JWTSecret, minSecretLen, "JWT_SECRET"),
		pkgconfig.MinLen(cfg.RefreshSecret, minSecretLen, "REFRESH_SECRET"),
	); err != nil {
		return nil, err
	}
	return cfg, nil
}
