// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, authentication, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus + Sentry)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - External collaborators injected through Deps so tests can fake them
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-survey-backend/internal/config"
	"github.com/tbourn/go-survey-backend/internal/http/handlers"
	"github.com/tbourn/go-survey-backend/internal/http/middleware"
	"github.com/tbourn/go-survey-backend/internal/repo"
	"github.com/tbourn/go-survey-backend/internal/services"
)

// Deps are the storage handle and external collaborators behind the API.
// Archive may be nil.
type Deps struct {
	DB       *gorm.DB
	AI       services.Completer
	Platform services.SurveyPlatform
	Gateway  services.PaymentGateway
	Archive  services.DocumentArchive
}

// Response headers browsers may read.
var exposedHeaders = []string{
	"X-Request-ID", "ETag", "Idempotency-Replayed",
	"X-Total-Count", "X-Page", "X-Page-Size", "X-Has-Next",
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Sentry hub per request, then Recovery (reports panics to it)
//  5. Body size limiter, gzip, metrics
//  6. CORS and security headers
//
// Per group: session routes are rate limited by IP; authenticated routes run
// Auth → Idempotency validator → rate limiter (keyed by user, bypassed on
// replay). The payment webhook is neither authenticated nor rate limited;
// its signature is checked by the service.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"Stripe-Signature",
			"X-API-TOKEN", // Qualtrics token header
		},
	}))

	// 4) Error reporting and panic recovery to JSON 500 (with request id)
	r.Use(middleware.Sentry())
	r.Use(middleware.Recovery())

	// 5) Body limit (1 MiB), response compression, Prometheus
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 6) CORS posture (safe defaults: allow all if none configured)
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:    cfg.Security.EnableHSTS,
		HSTSMaxAge:    cfg.Security.HSTSMaxAge,
		EnablePolicy:  true,
		ExposeHeaders: exposedHeaders[1:],
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Health: the process is up and the database answers.
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := repo.Ping(ctx, deps.DB); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("health: database ping failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/collaborators
	ledger := services.NewLedger(deps.DB)
	authSvc := &services.AuthService{
		DB:              deps.DB,
		Secret:          []byte(cfg.Auth.JWTSecret),
		TTL:             cfg.Auth.TokenTTL,
		StartingBalance: cfg.StartingTokenBalance,
		BcryptCost:      cfg.Auth.BcryptCost,
	}
	chatSvc := &services.ChatService{
		Ledger:          ledger,
		AI:              deps.AI,
		Timeout:         cfg.AI.Timeout,
		MaxMessages:     cfg.AI.MaxMessages,
		MaxMessageRunes: cfg.AI.MaxPromptLen,
	}
	surveySvc := &services.SurveyService{
		DB:             deps.DB,
		Ledger:         ledger,
		AI:             deps.AI,
		Platform:       deps.Platform,
		Archive:        deps.Archive,
		Timeout:        cfg.AI.Timeout,
		MaxPromptRunes: cfg.AI.MaxPromptLen,
		TitleLocale:    language.English,
		TitleMaxLen:    services.DefaultTitleMaxLen,
	}
	credSvc := &services.CredentialsService{DB: deps.DB, Platform: deps.Platform}
	paySvc := &services.PaymentService{
		DB:             deps.DB,
		Ledger:         ledger,
		Gateway:        deps.Gateway,
		PublishableKey: cfg.Stripe.PublishableKey,
	}
	idem := &repo.IdempotencyStore{DB: deps.DB, TTL: cfg.IdempotencyTTL}

	h := handlers.New(authSvc, chatSvc, surveySvc, credSvc, paySvc, idem, handlers.Options{
		CookieName:     cfg.Auth.CookieName,
		CookieSecure:   cfg.Auth.CookieSecure,
		PublishableKey: cfg.Stripe.PublishableKey,
	})

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	noStore := middleware.SecurityHeaders(middleware.SecurityOptions{NoStore: true})

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Sessions
		session := api.Group("", rl.Handler(), noStore)
		session.POST("/register", h.Register)
		session.POST("/login", h.Login)
		session.POST("/logout", h.Logout)

		// Payments (public)
		api.GET("/config/payments", h.PaymentConfig)
		api.POST("/webhooks/stripe", h.StripeWebhook)

		authed := api.Group("",
			middleware.Auth(authSvc, middleware.AuthOptions{CookieName: cfg.Auth.CookieName}),
			middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idem.Lookup),
			rl.Handler(),
		)
		authed.GET("/user", noStore, h.Me)
		authed.POST("/chat", h.Chat)
		authed.POST("/surveys/generate", h.GenerateSurvey)
		authed.GET("/surveys", h.ListSurveys)
		authed.POST("/settings/qualtrics", h.UpdateQualtricsSettings)
		authed.POST("/create-payment-intent", h.CreatePaymentIntent)
	}
}

// corsMiddleware returns the CORS chain. With no allowlist every origin is
// accepted without credentials; with one, the session cookie may be sent.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	methods := []string{"GET", "POST", "OPTIONS"}
	headers := []string{"Origin", "Content-Type", "Accept", "Authorization", "Stripe-Signature", middleware.HeaderIdempotencyKey}

	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     methods,
				AllowHeaders:     headers,
				ExposeHeaders:    exposedHeaders,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     methods,
			AllowHeaders:     headers,
			ExposeHeaders:    exposedHeaders,
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
