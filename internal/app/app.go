// Package app assembles the HTTP service from its collaborators.
package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/auth"
	"github.com/noah-isme/backend-pos/internal/billing"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/config"
	"github.com/noah-isme/backend-pos/internal/health"
	"github.com/noah-isme/backend-pos/internal/menu"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/order"
	"github.com/noah-isme/backend-pos/internal/present"
	"github.com/noah-isme/backend-pos/internal/ratelimit"
	"github.com/noah-isme/backend-pos/internal/rules"
	"github.com/noah-isme/backend-pos/internal/security"
)

// Dependencies enumerates the shared infrastructure handed to New. DB, Redis and
// Registry are optional: without them the service runs on the default menu, the
// default rules and in-memory order tickets.
type Dependencies struct {
	Config   *config.Config
	Logger   zerolog.Logger
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Registry *rules.Registry
	Metrics  *prometheus.Registry
	Tracing  bool
}

// App holds the assembled router and the services behind it.
type App struct {
	Router  http.Handler
	Menu    *menu.Service
	Rules   *rules.Service
	Orders  *order.Service
	Billing *billing.Service
}

// New wires services and routes.
func New(deps Dependencies) (*App, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	logger := deps.Logger

	var menuRepo menu.Repository = menu.NewStaticRepository(menu.DefaultMenu())
	var rulesRepo rules.Repository
	if deps.DB != nil {
		menuRepo = menu.PGRepository{DB: deps.DB}
		rulesRepo = rules.PGRepository{DB: deps.DB}
	}

	var (
		menuCache  *menu.Cache
		orderStore order.Store = order.NewMemoryStore()
		limiter    ratelimit.Allower
	)
	if deps.Redis != nil {
		menuCache = menu.NewCache(deps.Redis, cfg.MenuCacheTTL)
		orderStore = order.NewRedisStore(deps.Redis, cfg.OrderTTL)
		limiter = ratelimit.RedisWindow{Client: deps.Redis, Prefix: "ratelimit:"}
	} else {
		limiter = ratelimit.NewMemoryWindow()
	}

	menuSvc, err := menu.NewService(menu.ServiceConfig{Repo: menuRepo, Cache: menuCache, Logger: logger.With().Str("component", "menu").Logger()})
	if err != nil {
		return nil, err
	}

	registry := deps.Registry
	if registry == nil {
		registry = rules.DefaultRegistry()
	}
	rulesSvc := rules.NewService(rules.ServiceConfig{Registry: registry, Repo: rulesRepo, Logger: logger.With().Str("component", "rules").Logger()})

	orderSvc, err := order.NewService(order.ServiceConfig{Store: orderStore, Menu: menuSvc, Logger: logger.With().Str("component", "order").Logger()})
	if err != nil {
		return nil, err
	}

	billingSvc, err := billing.NewService(billing.ServiceConfig{Menu: menuSvc, Orders: orderSvc, Rules: rulesSvc, Logger: logger.With().Str("component", "billing").Logger()})
	if err != nil {
		return nil, err
	}

	verifier, err := staffVerifier(cfg, logger)
	if err != nil {
		return nil, err
	}
	var guard func(http.Handler) http.Handler
	if verifier != nil {
		guard = auth.Middleware{Verifier: verifier, Logger: logger}.RequireStaff
	}
	pins, err := auth.ParsePinBook(cfg.StaffPins)
	if err != nil {
		return nil, err
	}

	quoteLimit := ratelimit.Handler{
		Limiter: limiter,
		Config:  ratelimit.Config{Key: ratelimit.ByClientIP("quote:"), Window: cfg.QuoteRateWindow, Max: cfg.QuoteRateLimit},
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}.Middleware
	signInLimit := ratelimit.Handler{
		Limiter: limiter,
		Config:  ratelimit.Config{Key: ratelimit.ByClientIP("signin:"), Window: time.Minute, Max: 10},
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}.Middleware

	formatter := present.Formatter{Symbol: cfg.CurrencySymbol, Code: cfg.CurrencyCode, Places: cfg.CurrencyPlaces}
	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}

	var probes []health.Probe
	if deps.DB != nil {
		probes = append(probes, health.PostgresProbe(deps.DB))
	}
	if deps.Redis != nil {
		probes = append(probes, health.RedisProbe(deps.Redis))
	}
	healthHandler := health.Handler{Probes: probes}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if deps.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if deps.Metrics != nil {
		obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, deps.Metrics)
		httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBucketsMS), deps.Metrics)
		r.Use(obs.HTTPObs{Metrics: httpMetrics, Skip: []string{"/metrics", "/health/live", "/health/ready"}}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	if deps.Metrics != nil {
		r.Handle("/metrics", obs.Handler(deps.Metrics))
	}

	r.Route("/api/v1", func(v chi.Router) {
		menu.NewHandler(menuSvc).Routes(v)
		rules.NewHandler(rulesSvc).Routes(v, guard)
		order.NewHandler(orderSvc).Routes(v, idem.Middleware)
		billing.NewHandler(billingSvc, formatter).Routes(v, quoteLimit)
		(&auth.Handler{Pins: pins, Verifier: verifier, TTL: cfg.StaffTokenTTL, Logger: logger}).Routes(v, signInLimit)
	})

	return &App{Router: r, Menu: menuSvc, Rules: rulesSvc, Orders: orderSvc, Billing: billingSvc}, nil
}

// staffVerifier returns nil when no secret is configured; rule writes are then
// left open, which config only permits outside production.
func staffVerifier(cfg *config.Config, logger zerolog.Logger) (*auth.Verifier, error) {
	if cfg.StaffTokenSecret == "" {
		logger.Warn().Msg("STAFF_TOKEN_SECRET not set, rule management is unguarded")
		return nil, nil
	}
	return auth.NewVerifier(auth.Config{
		Secret:   cfg.StaffTokenSecret,
		Issuer:   cfg.StaffTokenIssuer,
		Audience: cfg.StaffTokenAudience,
	})
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
