package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"togetherdo/config"
	"togetherdo/internal/entity"
	"togetherdo/internal/metrics"
	"togetherdo/internal/repository"
	"togetherdo/internal/service"
	"togetherdo/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds the wired services shared by every subcommand.
type App struct {
	DB       *gorm.DB
	Registry *prometheus.Registry
	JWT      *utils.JWTManager
	Validate *validator.Validate

	Auth         *service.AuthService
	Interactions *service.InteractionService
	Usage        *service.UsageService
	Sweeper      *service.Sweeper

	closers []io.Closer
}

func newApp(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*App, error) {
	db, err := config.ConnectionDb(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	clock := service.RealClock{}
	jwt := &utils.JWTManager{
		Secret:         []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
		AccessTokenTTL: cfg.AccessTokenTTL,
		Leeway:         cfg.JWTLeeway,
	}

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	verifications := repository.NewVerificationTokenRepository(db)
	usage := repository.NewUsageCounterRepository(db)
	tx := repository.NewTxRunner(db)

	app := &App{
		DB:       db,
		Registry: registry,
		JWT:      jwt,
		Validate: validator.New(),
	}

	notifier, err := app.newNotifier(ctx, cfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	var emailSender service.EmailSender = service.LogEmailSender{Logger: logger}
	if cfg.ResendAPIKey != "" {
		emailSender = service.NewResendEmailSender(cfg.ResendAPIKey, cfg.EmailFrom)
	}

	policies := policiesFrom(cfg)
	tiers := service.NewTierResolver(repository.NewSubscriptionRepository(db), policies, clock)
	interactionCfg := service.InteractionConfig{
		TZOffsetMinutes: cfg.TZOffsetMinutes,
		TxRetries:       cfg.TxRetries,
		NotifyTimeout:   cfg.NotifyTimeout,
	}

	codes := service.NewVerificationService(verifications, tx, clock, service.VerificationConfig{
		CodeLength:   6,
		MaxAttempts:  cfg.CodeMaxAttempts,
		ResendWindow: cfg.CodeResendWindow,
		ResendLimit:  cfg.CodeResendLimit,
	}, m, logger.WithField("component", "verification"))

	app.Auth = service.NewAuthService(
		users,
		sessions,
		repository.NewSecurityLogRepository(db),
		codes,
		emailSender,
		service.BcryptPasswordHasher{},
		service.SessionTokenIssuer{JWT: jwt},
		clock,
		service.AuthConfig{
			AccessTokenTTL:       cfg.AccessTokenTTL,
			RefreshTokenTTL:      cfg.RefreshTokenTTL,
			VerificationTokenTTL: cfg.VerificationTokenTTL,
			ResetTokenTTL:        cfg.ResetTokenTTL,
		},
		logger.WithField("component", "auth"),
	)

	app.Interactions = service.NewInteractionService(service.InteractionDeps{
		Users:        users,
		Friendships:  repository.NewFriendshipRepository(db),
		Todos:        repository.NewTodoRepository(db),
		Interactions: repository.NewInteractionRepository(db),
		Usage:        usage,
		Tx:           tx,
		Tiers:        tiers,
		Notifier:     notifier,
		Clock:        clock,
		Metrics:      m,
		Logger:       logger.WithField("component", "interactions"),
	}, policies, interactionCfg)

	app.Usage = service.NewUsageService(usage, tx, tiers, policies, interactionCfg, clock, m, logger.WithField("component", "usage"))
	app.Sweeper = service.NewSweeper(verifications, sessions, cfg.TokenRetention, clock, m, logger.WithField("component", "sweeper"))
	return app, nil
}

func (a *App) newNotifier(ctx context.Context, cfg config.Config, logger *logrus.Logger) (service.Notifier, error) {
	switch cfg.NotifierDriver {
	case "nats":
		n, err := service.NewNATSNotifier(cfg.NATSURL, cfg.NotifyPrefix,
			nats.Name("togetherdo"),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, n)
		return n, nil
	case "redis":
		n, err := service.NewRedisNotifier(ctx, cfg.RedisURL, cfg.NotifyPrefix)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, n)
		return n, nil
	case "log", "":
		return service.LogNotifier{Logger: logger.WithField("component", "notifier")}, nil
	default:
		return nil, fmt.Errorf("unknown notifier driver %q", cfg.NotifierDriver)
	}
}

func (a *App) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func policiesFrom(cfg config.Config) service.Policies {
	policies := service.DefaultPolicies()
	policies[entity.FeatureNudge] = service.FeaturePolicy{
		DailyLimit:       cfg.NudgeDailyLimit,
		Cooldown:         cfg.NudgeCooldown,
		MaxMessageLength: cfg.MaxMessageLength,
		Interactive:      true,
	}
	policies[entity.FeatureCheer] = service.FeaturePolicy{
		DailyLimit:       cfg.CheerDailyLimit,
		Cooldown:         cfg.CheerCooldown,
		MaxMessageLength: cfg.MaxMessageLength,
		Interactive:      true,
	}
	policies[entity.FeatureAIParse] = service.FeaturePolicy{DailyLimit: cfg.AIParseLimit}
	return policies
}
