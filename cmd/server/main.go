package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/procura-app/procura/config"
	"github.com/procura-app/procura/internal/csrf"
	"github.com/procura-app/procura/internal/email"
	"github.com/procura-app/procura/internal/health"
	"github.com/procura-app/procura/internal/housekeeping"
	"github.com/procura-app/procura/internal/infrastructure/postgres"
	ctxlog "github.com/procura-app/procura/internal/log"
	"github.com/procura-app/procura/internal/metrics"
	"github.com/procura-app/procura/internal/ratelimit"
	"github.com/procura-app/procura/internal/sms"
	"github.com/procura-app/procura/internal/token"
	httptransport "github.com/procura-app/procura/internal/transport/http"
	"github.com/procura-app/procura/internal/transport/http/handler"
	"github.com/procura-app/procura/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	resetRepo := postgres.NewResetTokenRepository(pool)
	phoneRepo := postgres.NewPhoneCodeRepository(pool)

	issuer := token.NewIssuer([]byte(cfg.JWTSecret))
	guard := csrf.NewGuard(cfg.CSRFCookieName, cfg.CSRFHeaderName, cfg.Production())
	sessions := handler.NewSessionWriter(cfg.SessionCookieName, cfg.Production(), guard)

	emailSender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	smsSender := sms.NewSender(cfg.Env, cfg.SMSAPIKey, cfg.SMSFrom, logger)

	// Flows
	authUsecase := usecase.NewAuthUsecase(userRepo, resetRepo, issuer)
	resetUsecase := usecase.NewResetUsecase(userRepo, resetRepo, emailSender, cfg.PublicBaseURL, logger)
	phoneUsecase := usecase.NewPhoneUsecase(userRepo, phoneRepo, smsSender, issuer, logger)
	oauthUsecase := usecase.NewOAuthUsecase(userRepo, issuer, usecase.OAuthConfig{
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
		AppleClientID:      cfg.AppleClientID,
		Production:         cfg.Production(),
	})

	authHandler := handler.NewAuthHandler(authUsecase, sessions, logger)
	resetHandler := handler.NewResetHandler(resetUsecase, cfg.Production(), logger)
	phoneHandler := handler.NewPhoneHandler(phoneUsecase, sessions, cfg.Production(), logger)
	oauthHandler := handler.NewOAuthHandler(oauthUsecase, sessions, cfg.PublicBaseURL, cfg.Production(), logger)

	loginLimiter := ratelimit.New(10, 10*time.Minute)
	forgotLimiter := ratelimit.New(5, time.Hour)

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	janitor := housekeeping.NewJanitor(resetRepo, phoneRepo,
		[]*ratelimit.Limiter{loginLimiter, forgotLimiter}, logger)
	if err := janitor.Start(); err != nil {
		stop()
		log.Fatalf("janitor: %v", err)
	}

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, authHandler, resetHandler, phoneHandler,
			oauthHandler, guard, issuer, userRepo, cfg.SessionCookieName,
			loginLimiter, forgotLimiter),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	janitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
