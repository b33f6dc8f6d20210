package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/currency"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	DatabaseURL            string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	TenantID               string
	SummaryCacheTTLSeconds int
	AuthSecret             string
	AccessTokenTTLMinutes  int
	Currency               string
}

const defaultCurrency = "ARS"

// Load reads configuration from the environment, layered over an optional
// config.yaml in the working directory. Environment variables win.
func Load() Config {
	return load("")
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) Config {
	return load(path)
}

func load(path string) Config {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DEFAULT_TENANT_ID", "demo-tenant")
	v.SetDefault("SUMMARY_CACHE_TTL_SECONDS", 300)
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 480)
	v.SetDefault("CURRENCY", defaultCurrency)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			log.Printf("[config] WARN: read config file: %v", err)
		}
	}

	cacheTTL := v.GetInt("SUMMARY_CACHE_TTL_SECONDS")
	if cacheTTL < 1 {
		cacheTTL = 300
	}
	tokenTTL := v.GetInt("ACCESS_TOKEN_TTL_MINUTES")
	if tokenTTL < 1 {
		tokenTTL = 480
	}
	code, err := normalizeCurrency(v.GetString("CURRENCY"))
	if err != nil {
		log.Printf("[config] WARN: %v, falling back to %s", err, defaultCurrency)
		code = defaultCurrency
	}

	return Config{
		Port:                   v.GetString("PORT"),
		AllowedOrigin:          v.GetString("ALLOWED_ORIGIN"),
		DatabaseURL:            v.GetString("DATABASE_URL"),
		RedisAddr:              v.GetString("REDIS_ADDR"),
		RedisPassword:          v.GetString("REDIS_PASSWORD"),
		RedisDB:                v.GetInt("REDIS_DB"),
		TenantID:               v.GetString("DEFAULT_TENANT_ID"),
		SummaryCacheTTLSeconds: cacheTTL,
		AuthSecret:             strings.TrimSpace(v.GetString("AUTH_SECRET")),
		AccessTokenTTLMinutes:  tokenTTL,
		Currency:               code,
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// CurrencyUnit returns the configured ISO 4217 currency.
func (c Config) CurrencyUnit() currency.Unit {
	unit, err := currency.ParseISO(c.Currency)
	if err != nil {
		return currency.MustParseISO(defaultCurrency)
	}
	return unit
}

func normalizeCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("invalid currency %q: %w", code, err)
	}
	return unit.String(), nil
}
