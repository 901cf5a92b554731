package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN" default:"http://127.0.0.1:3000"`
	SecureCookies bool   `envconfig:"SECURE_COOKIES" default:"false"`
	Timezone      string `envconfig:"TIMEZONE" default:"UTC"`

	DatabaseURL    string        `envconfig:"DATABASE_URL"`
	DBMaxOpenConns int           `envconfig:"DB_MAX_OPEN_CONNS" default:"30"`
	DBMaxIdleConns int           `envconfig:"DB_MAX_IDLE_CONNS" default:"8"`
	DBConnLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	AutoMigrate    bool          `envconfig:"AUTO_MIGRATE" default:"false"`

	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	ReportCacheTTL time.Duration `envconfig:"REPORT_CACHE_TTL" default:"1m"`

	AuthSecret    string        `envconfig:"AUTH_SECRET"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	PuttyPassword string        `envconfig:"PUTTY_PASSWORD"`
	SonyPassword  string        `envconfig:"SONY_PASSWORD"`

	GCSBucket          string `envconfig:"GCS_BUCKET" default:"saree-images"`
	GCSCredentialsJSON string `envconfig:"GCS_CREDENTIALS_JSON"`
	ImageMaxWidth      int    `envconfig:"IMAGE_MAX_WIDTH" default:"1600"`

	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"LOG_WARN_STACK" default:"false"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	cfg.PuttyPassword = strings.TrimSpace(cfg.PuttyPassword)
	cfg.SonyPassword = strings.TrimSpace(cfg.SonyPassword)

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location is the shop's time zone; calendar dates in requests are read in it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PartnerPasswords maps each login account to its configured password.
func (c Config) PartnerPasswords() map[string]string {
	return map[string]string{
		"Putty": c.PuttyPassword,
		"Sony":  c.SonyPassword,
	}
}
