package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/fx"

	"jobboard-edge/internal/client"
	"jobboard-edge/internal/config"
	"jobboard-edge/internal/guard"
	"jobboard-edge/internal/handler"
	"jobboard-edge/internal/metrics"
	"jobboard-edge/internal/middleware"
	"jobboard-edge/internal/service"
	"jobboard-edge/internal/store"
	"jobboard-edge/internal/telemetry"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	envFiles, err := config.LoadEnvFiles(config.DefaultEnvFiles...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var cli config.CLI
	kong.Parse(&cli,
		kong.Name("jobboard-edge"),
		kong.Description("Edge service for the job board: route guard, API and document proxies, shared state."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	fx.New(
		fx.Provide(
			func() *config.CLI { return &cli },
			func() handler.Version { return handler.Version(version) },
			config.Load,
			newLogger,
			metrics.New,
			newGuard,
			newEcho,
			client.New,
			service.NewProxyService,
			service.NewDocumentService,
			store.NewSet,
			newReferenceStore,
			handler.NewProxyHandler,
			handler.NewDocumentHandler,
			handler.NewStateHandler,
			handler.NewHealthHandler,
		),
		fx.Invoke(
			func(logger *slog.Logger) {
				if len(envFiles) > 0 {
					logger.Info("loaded env files", "files", envFiles)
				}
			},
			handler.RegisterRoutes,
			registerMetrics,
			handler.RegisterFrontend,
			warnConfigPermissions,
			startTelemetry,
			startConfigWatcher,
			startServer,
		),
	).Run()
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "text":
		h = slog.NewTextHandler(os.Stdout, opts)
	default:
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(h)
}

func newGuard(cfg *config.Config) *guard.Guard {
	return guard.New(cfg.GuardRedirects())
}

func newReferenceStore(cfg *config.Config, logger *slog.Logger) (*store.Reference, error) {
	ref := store.NewReference()
	if cfg.State.ReferenceSeed == "" {
		return ref, nil
	}
	n, err := ref.LoadSeed(cfg.State.ReferenceSeed)
	if err != nil {
		return nil, err
	}
	logger.Info("reference data seeded", "path", cfg.State.ReferenceSeed, "kinds", n)
	return ref, nil
}

func newEcho(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, g *guard.Guard) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Inbound timeouts to mitigate slow-client attacks. WriteTimeout stays
	// disabled; the upstream client timeout bounds long document fetches.
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 0
	e.Server.IdleTimeout = 120 * time.Second
	e.Server.ReadHeaderTimeout = 10 * time.Second
	e.Server.Handler = otelhttp.NewHandler(e, "jobboard-edge")

	// Request-scoped middleware runs in Pre so guard redirects are logged and
	// counted. The guard answers before routing so page paths never reach the
	// frontend proxy.
	e.Pre(echomw.Recover())
	e.Pre(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Pre(middleware.RequestLogger(logger))
	if cfg.Metrics.Enabled {
		e.Pre(middleware.Metrics(m, cfg.Metrics.Path))
	}
	e.Pre(middleware.SecurityHeaders())
	e.Pre(middleware.RouteGuard(g, m))

	e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", cfg.Server.BodyMaxBytes)))

	if cfg.Server.RateLimit.Enabled {
		e.Use(middleware.RateLimiter(cfg.Server.RateLimit.RequestsPerSecond))
		logger.Info("rate limiter enabled", "rps", cfg.Server.RateLimit.RequestsPerSecond)
	}

	return e
}

func registerMetrics(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) {
	if !cfg.Metrics.Enabled {
		return
	}
	e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	logger.Info("metrics enabled", "path", cfg.Metrics.Path)
}

func warnConfigPermissions(cfg *config.Config, logger *slog.Logger) {
	cfg.WarnPermissions(logger)
}

func startTelemetry(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) {
	var shutdown telemetry.ShutdownFunc
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = telemetry.SetupProvider(ctx, cfg.Telemetry, version)
			if err != nil {
				return err
			}
			if cfg.Telemetry.Endpoint != "" {
				logger.Info("tracing enabled", "endpoint", cfg.Telemetry.Endpoint)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	})
}

func startConfigWatcher(lc fx.Lifecycle, cfg *config.Config, g *guard.Guard, logger *slog.Logger) error {
	if !cfg.Guard.Watch {
		return nil
	}
	w, err := config.NewWatcher(cfg, logger, func(next *config.Config) {
		g.SetTargets(next.GuardRedirects())
		logger.Info("guard redirects reloaded", "targets", len(g.Targets()))
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return w.Start() },
		OnStop:  func(context.Context) error { return w.Stop() },
	})
	return nil
}

func startServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			addr := cfg.Server.Addr()
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("bind %s: %w", addr, err)
			}
			logger.Info("starting server", "addr", addr)
			go func() {
				if err := e.Server.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("server error", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down server")
			return e.Shutdown(ctx)
		},
	})
}
