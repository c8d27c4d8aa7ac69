package main

import (
	"log/slog"
	"os"
	"strings"

	"leetcode-dash/internal/api"
	"leetcode-dash/internal/config"
	"leetcode-dash/internal/leetcode"
	"leetcode-dash/internal/store"

	"github.com/clerk/clerk-sdk-go/v2"
)

type app struct {
	config   *config.Config
	logger   *slog.Logger
	store    store.Store
	gateway  *api.Gateway
	handlers *api.Handlers
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	lc := leetcode.New(leetcode.Options{
		Endpoint:  cfg.LeetCode.GraphQLEndpoint,
		Origin:    cfg.LeetCode.Origin,
		UserAgent: cfg.LeetCode.UserAgent,
		Timeout:   cfg.LeetCode.Timeout,
	})

	guardCfg := leetcode.DefaultGuardConfig()
	guardCfg.RatePerSecond = cfg.Upstream.RatePerSecond
	guardCfg.BreakerFailures = cfg.Upstream.BreakerFailures
	guardCfg.Logger = logger
	guard := leetcode.NewGuard(lc, guardCfg)
	defer guard.Close()

	sessions := api.NewSessionBridge(cfg.Cache.SessionTTL, nil)
	if cfg.LeetCode.Session != "" {
		if err := sessions.Set(leetcode.Session{ID: cfg.LeetCode.Session, CSRFToken: cfg.LeetCode.CSRF}); err != nil {
			logger.Warn("ignoring boot session", "error", err)
		} else {
			logger.Info("leetcode session loaded from environment")
		}
	}

	gw := api.NewGateway(api.GatewayConfig{
		TTL:      cfg.Cache.TTL,
		LongTTL:  cfg.Cache.DailyTTL,
		Sessions: sessions,
		Logger:   logger,
	}, guard)

	var s store.Store
	if cfg.Database.URL != "" {
		s, err = store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Warn("failed to initialize database, snapshots kept in memory only", "error", err)
			s = nil
		} else {
			defer s.Close()
			logger.Info("database initialized")
		}
	}

	svc := api.NewUserService(api.ServiceConfig{
		Gateway:      gw,
		Sessions:     sessions,
		Store:        s,
		RecentLimit:  cfg.LeetCode.RecentLimit,
		MockFallback: cfg.Upstream.MockFallback,
		Logger:       logger,
	})

	if cfg.Clerk.SecretKey != "" {
		clerk.SetKey(cfg.Clerk.SecretKey)
		logger.Info("clerk authentication enabled for session endpoints")
	}

	app := &app{
		config:   cfg,
		logger:   logger,
		store:    s,
		gateway:  gw,
		handlers: api.NewHandlers(gw, svc, logger),
	}

	logger.Info("listening",
		"port", cfg.Server.Port,
		"upstream", cfg.LeetCode.GraphQLEndpoint,
		"mock_fallback", cfg.Upstream.MockFallback)

	if err := app.serve(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
