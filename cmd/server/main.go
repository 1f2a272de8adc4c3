// Command server runs the survey generator API.
//
// @title                      Survey Generator API
// @version                    1.0
// @description                Generates Qualtrics surveys from prompts with an LLM, metered by a per-user token ledger.
// @BasePath                   /api
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Type "Bearer" followed by a space and the session token.
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-survey-backend/docs"
	"github.com/tbourn/go-survey-backend/internal/ai"
	"github.com/tbourn/go-survey-backend/internal/archive"
	"github.com/tbourn/go-survey-backend/internal/config"
	httpapi "github.com/tbourn/go-survey-backend/internal/http"
	"github.com/tbourn/go-survey-backend/internal/observability"
	"github.com/tbourn/go-survey-backend/internal/payments"
	"github.com/tbourn/go-survey-backend/internal/qualtrics"
	"github.com/tbourn/go-survey-backend/internal/repo"
	"github.com/tbourn/go-survey-backend/internal/sysutil"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = ""
	commit  = ""
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Logging is not configured yet.
		l := sysutil.NewLogger(os.Stderr, "go-survey-backend", true)
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	lg := sysutil.SetupLogging(cfg.LogLevel, cfg.OTEL.ServiceName, cfg.LogPretty)
	release := sysutil.Release(cfg.OTEL.ServiceName, sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION")), commit)

	if err := run(cfg, release, lg); err != nil {
		lg.Fatal().Err(err).Msg("server stopped")
	}
	lg.Info().Msg("server exited gracefully")
}

func run(cfg config.Config, release string, lg zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Telemetry
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, release)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			lg.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	flushSentry, err := observability.SetupSentry(cfg.Sentry, release)
	if err != nil {
		return err
	}
	defer flushSentry(2 * time.Second)

	// Storage
	db, err := repo.Open(cfg.DB)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Collaborators
	completer, err := ai.New(ctx, cfg.AI)
	if err != nil {
		return err
	}
	if c, ok := completer.(io.Closer); ok {
		defer c.Close()
	}
	docArchive, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		return err
	}
	deps := httpapi.Deps{
		DB:       db,
		AI:       completer,
		Platform: qualtrics.New(cfg.Qualtrics.BaseURL, cfg.Qualtrics.Timeout),
		Gateway:  payments.New(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, payments.Options{Currency: cfg.Stripe.Currency}),
		Archive:  docArchive,
	}

	// HTTP
	gin.SetMode(cfg.GinMode)
	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	docs.SwaggerInfo.Version = sysutil.FirstNonEmpty(version, docs.SwaggerInfo.Version)

	r := gin.New()
	httpapi.RegisterRoutes(r, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info().
			Str("addr", srv.Addr).
			Str("release", release).
			Str("ai_provider", cfg.AI.Provider).
			Str("db_driver", cfg.DB.Driver).
			Bool("archive", cfg.Archive.Enabled).
			Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		lg.Info().Msg("shutting down http server")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
