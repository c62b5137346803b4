package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/cafe-app/utils"
)

// Config holds every runtime setting. It is built once in main and handed
// to the components that need it.
type Config struct {
	Port    string
	GinMode string

	DBDriver string // mysql | sqlite
	DBDSN    string

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	BcryptCost    int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RabbitMQURL string

	CORSOrigins   []string
	AuthRateLimit int // requests per minute per client on /auth

	LogLevel  string
	LogFormat string

	PointsRetryInterval time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debugf(".env not loaded: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function and validates it.
func FromEnv(getenv func(string) string) (Config, error) {
	p := parser{getenv: getenv}
	cfg := Config{
		Port:                p.str("PORT", "8080"),
		GinMode:             p.str("GIN_MODE", "debug"),
		DBDriver:            strings.ToLower(p.str("DB_DRIVER", "mysql")),
		DBDSN:               p.str("DB_DSN", ""),
		AccessSecret:        p.str("JWT_ACCESS_SECRET", ""),
		RefreshSecret:       p.str("JWT_REFRESH_SECRET", ""),
		AccessTTL:           p.duration("ACCESS_TOKEN_TTL", utils.DefaultAccessTTL),
		RefreshTTL:          p.duration("REFRESH_TOKEN_TTL", utils.DefaultRefreshTTL),
		BcryptCost:          p.int("BCRYPT_COST", 10),
		RedisAddr:           p.str("REDIS_ADDR", ""),
		RedisPassword:       p.str("REDIS_PASSWORD", ""),
		RedisDB:             p.int("REDIS_DB", 0),
		RabbitMQURL:         p.str("RABBITMQ_URL", ""),
		CORSOrigins:         p.list("CORS_ORIGINS", []string{"*"}),
		AuthRateLimit:       p.int("AUTH_RATE_LIMIT", 20),
		LogLevel:            p.str("LOG_LEVEL", "info"),
		LogFormat:           p.str("LOG_FORMAT", "text"),
		PointsRetryInterval: p.duration("POINTS_RETRY_INTERVAL", 30*time.Second),
	}
	if len(p.errs) > 0 {
		return Config{}, errors.Join(p.errs...)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.AccessSecret == "" {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET is required"))
	}
	if c.RefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET is required"))
	}
	if c.AccessSecret != "" && c.AccessSecret == c.RefreshSecret {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	switch c.DBDriver {
	case "mysql":
		if c.DBDSN == "" {
			errs = append(errs, errors.New("DB_DSN is required for mysql"))
		}
	case "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	return errors.Join(errs...)
}

// TokenConfig converts the secrets and TTLs for utils.NewTokenService.
func (c Config) TokenConfig() utils.TokenConfig {
	return utils.TokenConfig{
		AccessSecret:  []byte(c.AccessSecret),
		RefreshSecret: []byte(c.RefreshSecret),
		AccessTTL:     c.AccessTTL,
		RefreshTTL:    c.RefreshTTL,
	}
}

type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid int for %s: %q", key, v))
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid duration for %s: %q", key, v))
		return def
	}
	return d
}

func (p *parser) list(key string, def []string) []string {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
