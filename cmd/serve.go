package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"togetherdo/api/handler"
	apiMiddleware "togetherdo/api/middleware"
	"togetherdo/api/routes"
	"togetherdo/config"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCommand(logger *logrus.Logger) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			if err := cfg.RequireServer(); err != nil {
				return err
			}
			app, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			if migrate {
				if err := config.Migrate(ctx, app.DB); err != nil {
					return err
				}
			}
			if cfg.SweepInterval > 0 {
				go app.Sweeper.Run(ctx, cfg.SweepInterval)
			}
			return serve(ctx, cfg, app, logger)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Run table migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, app *App, logger *logrus.Logger) error {
	cookie := handler.DefaultRefreshCookie()
	cookie.Domain = cfg.CookieDomain
	cookie.Secure = cfg.CookieSecure
	authHandler := handler.NewAuthHandler(app.Auth, app.Validate, cookie)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogError:     true,
		HandleError:  true,
		LogRoutePath: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status":  v.Status,
				"method":  v.Method,
				"route":   v.RoutePath,
				"uri":     v.URI,
				"ip":      v.RemoteIP,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	sqlDB, err := app.DB.DB()
	if err != nil {
		return err
	}

	router := routes.NewRouter(e, apiMiddleware.AuthMiddleware{JWT: app.JWT}, routes.RateConfig{
		PerSecond: cfg.AuthRateLimit,
		Burst:     cfg.AuthRateBurst,
	})
	router.Auth = authHandler
	router.Interactions = handler.NewInteractionHandler(app.Interactions, app.Validate)
	router.Usage = handler.NewUsageHandler(app.Usage)
	router.Health = handler.HealthHandler{DB: sqlDB}
	router.Metrics = promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("server started")
		errCh <- e.StartServer(server)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	app.Interactions.Wait()
	return nil
}
