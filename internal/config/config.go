// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, database selection, rate limiting, observability and the settings
// for every external collaborator (AI provider, Qualtrics, Stripe, S3).
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-survey-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN         string // SENTRY_DSN
	Environment string // SENTRY_ENVIRONMENT
}

// DBConfig selects the storage backend.
type DBConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH (sqlite)
	DSN    string // DATABASE_URL (postgres)
}

// AIConfig configures the completion provider.
type AIConfig struct {
	Provider     string        // AI_PROVIDER: openai|gemini
	OpenAIKey    string        // OPENAI_API_KEY
	OpenAIModel  string        // OPENAI_MODEL
	OpenAIURL    string        // OPENAI_BASE_URL (optional override)
	GeminiKey    string        // GEMINI_API_KEY
	GeminiModel  string        // GEMINI_MODEL
	Timeout      time.Duration // AI_TIMEOUT
	MaxMessages  int           // AI_MAX_MESSAGES
	MaxPromptLen int           // AI_MAX_PROMPT_RUNES
}

// QualtricsConfig configures the survey platform client.
type QualtricsConfig struct {
	// BaseURL is a template; "{datacenter}" is replaced per user.
	BaseURL string        // QUALTRICS_BASE_URL
	Timeout time.Duration // QUALTRICS_TIMEOUT
}

// StripeConfig configures the payment processor.
type StripeConfig struct {
	SecretKey      string // STRIPE_SECRET_KEY
	WebhookSecret  string // STRIPE_WEBHOOK_SECRET
	PublishableKey string // STRIPE_PUBLISHABLE_KEY
	Currency       string // STRIPE_CURRENCY
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	JWTSecret    string        // JWT_SECRET
	TokenTTL     time.Duration // JWT_TTL
	CookieName   string        // SESSION_COOKIE
	CookieSecure bool          // SESSION_COOKIE_SECURE
	BcryptCost   int           // BCRYPT_COST
}

// ArchiveConfig configures the optional S3 archive of generated documents.
type ArchiveConfig struct {
	Enabled   bool   // ARCHIVE_ENABLED
	Bucket    string // ARCHIVE_BUCKET
	Region    string // AWS_REGION
	Endpoint  string // ARCHIVE_ENDPOINT (S3-compatible stores)
	AccessKey string // AWS_ACCESS_KEY_ID
	SecretKey string // AWS_SECRET_ACCESS_KEY
	Prefix    string // ARCHIVE_PREFIX
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 90s (generation is slow)
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful drain
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DB                   DBConfig
	StartingTokenBalance int64 // STARTING_TOKEN_BALANCE

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Collaborators
	AI        AIConfig
	Qualtrics QualtricsConfig
	Stripe    StripeConfig
	Auth      AuthConfig
	Archive   ArchiveConfig

	// Observability
	OTEL   OTELConfig
	Sentry SentryConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 90*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 15*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// App
		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "app.db"),
			DSN:    getenv("DATABASE_URL", ""),
		},
		StartingTokenBalance: int64(getint("STARTING_TOKEN_BALANCE", 100)),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Collaborators
		AI: AIConfig{
			Provider:     strings.ToLower(getenv("AI_PROVIDER", "openai")),
			OpenAIKey:    getenv("OPENAI_API_KEY", ""),
			OpenAIModel:  getenv("OPENAI_MODEL", "gpt-4o"),
			OpenAIURL:    getenv("OPENAI_BASE_URL", ""),
			GeminiKey:    getenv("GEMINI_API_KEY", ""),
			GeminiModel:  getenv("GEMINI_MODEL", "gemini-1.5-flash"),
			Timeout:      getdur("AI_TIMEOUT", 60*time.Second),
			MaxMessages:  getint("AI_MAX_MESSAGES", 50),
			MaxPromptLen: getint("AI_MAX_PROMPT_RUNES", 4000),
		},
		Qualtrics: QualtricsConfig{
			BaseURL: getenv("QUALTRICS_BASE_URL", "https://{datacenter}.qualtrics.com/API/v3"),
			Timeout: getdur("QUALTRICS_TIMEOUT", 20*time.Second),
		},
		Stripe: StripeConfig{
			SecretKey:      getenv("STRIPE_SECRET_KEY", ""),
			WebhookSecret:  getenv("STRIPE_WEBHOOK_SECRET", ""),
			PublishableKey: getenv("STRIPE_PUBLISHABLE_KEY", ""),
			Currency:       strings.ToLower(getenv("STRIPE_CURRENCY", "usd")),
		},
		Auth: AuthConfig{
			JWTSecret:    getenv("JWT_SECRET", ""),
			TokenTTL:     getdur("JWT_TTL", 7*24*time.Hour),
			CookieName:   getenv("SESSION_COOKIE", "session"),
			CookieSecure: getbool("SESSION_COOKIE_SECURE", false),
			BcryptCost:   getint("BCRYPT_COST", 10),
		},
		Archive: ArchiveConfig{
			Enabled:   getbool("ARCHIVE_ENABLED", false),
			Bucket:    getenv("ARCHIVE_BUCKET", ""),
			Region:    getenv("AWS_REGION", "us-east-1"),
			Endpoint:  getenv("ARCHIVE_ENDPOINT", ""),
			AccessKey: getenv("AWS_ACCESS_KEY_ID", ""),
			SecretKey: getenv("AWS_SECRET_ACCESS_KEY", ""),
			Prefix:    strings.Trim(getenv("ARCHIVE_PREFIX", "surveys"), "/"),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-survey-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
		Sentry: SentryConfig{
			DSN:         getenv("SENTRY_DSN", ""),
			Environment: getenv("SENTRY_ENVIRONMENT", "production"),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" {
		cfg.DB.Driver = "postgres"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.DSN) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.StartingTokenBalance < 0 {
		return cfg, errors.New("STARTING_TOKEN_BALANCE must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	switch cfg.AI.Provider {
	case "openai":
		if strings.TrimSpace(cfg.AI.OpenAIKey) == "" {
			return cfg, errors.New("OPENAI_API_KEY is required")
		}
	case "gemini":
		if strings.TrimSpace(cfg.AI.GeminiKey) == "" {
			return cfg, errors.New("GEMINI_API_KEY is required when AI_PROVIDER=gemini")
		}
	default:
		return cfg, errors.New("AI_PROVIDER must be one of: openai, gemini")
	}
	if cfg.AI.Timeout <= 0 || cfg.Qualtrics.Timeout <= 0 {
		return cfg, errors.New("AI_TIMEOUT and QUALTRICS_TIMEOUT must be positive durations")
	}
	if !strings.Contains(cfg.Qualtrics.BaseURL, "{datacenter}") && !strings.HasPrefix(cfg.Qualtrics.BaseURL, "http") {
		return cfg, errors.New("QUALTRICS_BASE_URL must be an http(s) URL")
	}
	if strings.TrimSpace(cfg.Stripe.SecretKey) == "" {
		return cfg, errors.New("STRIPE_SECRET_KEY is required")
	}
	if strings.TrimSpace(cfg.Stripe.WebhookSecret) == "" {
		return cfg, errors.New("STRIPE_WEBHOOK_SECRET is required")
	}
	if strings.TrimSpace(cfg.Stripe.PublishableKey) == "" {
		return cfg, errors.New("STRIPE_PUBLISHABLE_KEY is required")
	}
	if len(cfg.Auth.JWTSecret) < 16 {
		return cfg, errors.New("JWT_SECRET must be at least 16 characters")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return cfg, errors.New("JWT_TTL must be > 0")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return cfg, errors.New("BCRYPT_COST must be between 4 and 31")
	}
	if cfg.Archive.Enabled && strings.TrimSpace(cfg.Archive.Bucket) == "" {
		return cfg, errors.New("ARCHIVE_BUCKET is required when ARCHIVE_ENABLED=true")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
