package config

import (
	"context"
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR,default=:8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	DBMaxOpen   int    `env:"DB_MAX_OPEN_CONNS,default=20"`
	DBMaxIdle   int    `env:"DB_MAX_IDLE_CONNS,default=5"`

	JWTSecret       string        `env:"JWT_SECRET"`
	JWTIssuer       string        `env:"JWT_ISSUER,default=togetherdo"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,default=15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL,default=720h"`
	JWTLeeway       time.Duration `env:"JWT_LEEWAY,default=30s"`
	CookieDomain    string        `env:"COOKIE_DOMAIN"`
	CookieSecure    bool          `env:"COOKIE_SECURE,default=true"`

	TZOffsetMinutes int `env:"TZ_OFFSET_MINUTES,default=540"`
	TxRetries       int `env:"TX_RETRIES,default=3"`

	NudgeDailyLimit  int           `env:"NUDGE_DAILY_LIMIT,default=5"`
	NudgeCooldown    time.Duration `env:"NUDGE_COOLDOWN,default=24h"`
	CheerDailyLimit  int           `env:"CHEER_DAILY_LIMIT,default=10"`
	CheerCooldown    time.Duration `env:"CHEER_COOLDOWN,default=1h"`
	AIParseLimit     int           `env:"AI_PARSE_DAILY_LIMIT,default=3"`
	MaxMessageLength int           `env:"MAX_MESSAGE_LENGTH,default=200"`

	VerificationTokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL,default=15m"`
	ResetTokenTTL        time.Duration `env:"RESET_TOKEN_TTL,default=15m"`
	CodeMaxAttempts      int           `env:"CODE_MAX_ATTEMPTS,default=5"`
	CodeResendWindow     time.Duration `env:"CODE_RESEND_WINDOW,default=60s"`
	CodeResendLimit      int           `env:"CODE_RESEND_LIMIT,default=1"`

	NotifierDriver string        `env:"NOTIFIER_DRIVER,default=log"`
	NotifyPrefix   string        `env:"NOTIFY_PREFIX,default=togetherdo"`
	NotifyTimeout  time.Duration `env:"NOTIFY_TIMEOUT,default=5s"`
	NATSURL        string        `env:"NATS_URL,default=nats://127.0.0.1:4222"`
	RedisURL       string        `env:"REDIS_URL,default=redis://127.0.0.1:6379/0"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	EmailFrom    string `env:"EMAIL_FROM"`

	SweepInterval  time.Duration `env:"SWEEP_INTERVAL,default=1h"`
	TokenRetention time.Duration `env:"TOKEN_RETENTION,default=24h"`

	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT,default=1"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST,default=5"`
}

// Load reads .env when present, then the process environment.
func Load(ctx context.Context) (Config, error) {
	_ = godotenv.Load()
	return LoadFrom(ctx, envconfig.OsLookuper())
}

func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

func (c Config) RequireServer() error {
	if err := c.RequireDatabase(); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.NotifierDriver {
	case "log", "nats", "redis":
	default:
		return errors.New("NOTIFIER_DRIVER must be one of log, nats, redis")
	}
	return nil
}
