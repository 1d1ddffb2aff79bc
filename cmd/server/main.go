// Package main provides the sky chart API HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/skychart-api/internal/adapter/catalog"
	"go.ngs.io/skychart-api/internal/adapter/ephemeris"
	"go.ngs.io/skychart-api/internal/adapter/geoid"
	"go.ngs.io/skychart-api/internal/adapter/history"
	"go.ngs.io/skychart-api/internal/adapter/location"
	"go.ngs.io/skychart-api/internal/adapter/terrain"
	"go.ngs.io/skychart-api/internal/config"
	"go.ngs.io/skychart-api/internal/domain"
	httpHandler "go.ngs.io/skychart-api/internal/http"
	"go.ngs.io/skychart-api/internal/logging"
	"go.ngs.io/skychart-api/internal/observability"
	"go.ngs.io/skychart-api/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("skychart-api version %s\n", version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "skychart-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info(ctx, "starting sky chart server",
		logging.String("version", version),
		logging.String("port", cfg.Port),
	)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: "skychart-api",
		Exporter:    cfg.TracingExporter,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TracingSampleRatio,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	providers, err := buildProviders(ctx, cfg, log)
	if err != nil {
		return err
	}

	hist, closeHistory, err := buildHistory(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeHistory()

	opts := usecase.Options{
		Metrics:     collector,
		Logger:      log,
		FontPath:    cfg.FontPath,
		DefaultLang: cfg.DefaultLang,
	}
	if cfg.GeoidPath != "" {
		store := geoid.NewStore(cfg.GeoidPath)
		if err := store.Load(); err != nil {
			return err
		}
		log.Info(ctx, "geoid model loaded", logging.String("path", cfg.GeoidPath))
		opts.Geoid = store
	}
	if cfg.TerrainPath != "" {
		opts.Terrain = terrain.NewStore(cfg.TerrainPath, terrain.DefaultMargin)
	}

	// Initialize use case.
	skyChartUC := usecase.NewSkyChartUseCase(providers, location.Default(), hist, opts)

	// Setup router.
	gin.SetMode(gin.ReleaseMode)
	router := httpHandler.SetupRouter(skyChartUC, httpHandler.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         log,
		Metrics:        collector,
		StreamInterval: cfg.StreamInterval,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server listening",
			logging.String("addr", srv.Addr),
			logging.String("health", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildProviders assembles the provider chain: solar system first, then the
// star catalog, then satellites when a TLE file is configured.
func buildProviders(ctx context.Context, cfg config.Config, log logging.Logger) (domain.ProviderChain, error) {
	stars := catalog.Builtin()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		stars = loaded
		log.Info(ctx, "star catalog loaded",
			logging.String("path", cfg.CatalogPath),
			logging.Int("stars", stars.Len()),
		)
	} else {
		log.Info(ctx, "using builtin star catalog", logging.Int("stars", stars.Len()))
	}

	providers := domain.ProviderChain{ephemeris.SolarSystem{}, stars}

	if cfg.TLEPath != "" {
		sats, err := ephemeris.LoadSatellites(ctx, cfg.TLEPath)
		if err != nil {
			return nil, err
		}
		providers = append(providers, sats)
		log.Info(ctx, "satellites loaded",
			logging.String("path", cfg.TLEPath),
			logging.Int("satellites", len(sats.Bodies())),
		)
	}
	return providers, nil
}

// buildHistory opens Postgres when DATABASE_URL is set, else keeps charts in
// memory.
func buildHistory(ctx context.Context, cfg config.Config, log logging.Logger) (history.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info(ctx, "chart history in memory", logging.Int("limit", cfg.HistoryLimit))
		return history.NewMemoryStore(cfg.HistoryLimit), func() {}, nil
	}

	db, err := history.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	pg := history.NewPostgresStore(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info(ctx, "chart history in postgres")
	return pg, func() { _ = db.Close() }, nil
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Sky Chart API Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  skychart-api [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES (also read from ./.env):")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  CATALOG_PATH            Star catalog, .csv or .nc (optional, merged over the builtin stars)")
	fmt.Println("  TLE_PATH                Satellite two-line elements file or URL (optional)")
	fmt.Println("  GEOID_PATH              NetCDF geoid grid; heights are then read as above sea level (optional)")
	fmt.Println("  TERRAIN_PATH            GEBCO style elevation grid for height=terrain (optional)")
	fmt.Println("  DATABASE_URL            Postgres URL for chart history (optional, default: in memory)")
	fmt.Println("  HISTORY_LIMIT           Charts kept in memory (default: 500)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  LOG_LEVEL               debug, info, warn or error (default: info)")
	fmt.Println("  LOG_FORMAT              text or json (default: text)")
	fmt.Println("  STREAM_INTERVAL         Websocket push interval (default: 5s)")
	fmt.Println("  FONT_PATH               TrueType font for PNG charts (optional)")
	fmt.Println("  DEFAULT_LANG            Label language when the request names none (default: en)")
	fmt.Println("  TRACING_ENABLED         Enable OpenTelemetry tracing (default: false)")
	fmt.Println("  TRACING_EXPORTER        stdout or otlp (default: stdout)")
	fmt.Println("  OTLP_ENDPOINT           OTLP gRPC endpoint (default: localhost:4317)")
	fmt.Println("  TRACING_SAMPLE_RATIO    Trace sampling ratio 0..1 (default: 1)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start server with default settings")
	fmt.Println("  skychart-api")
	fmt.Println()
	fmt.Println("  # Start server on custom port")
	fmt.Println("  PORT=3000 skychart-api")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                    Health check")
	fmt.Println("  GET /metrics                   Prometheus metrics")
	fmt.Println("  GET /v1/locations              Named observing sites")
	fmt.Println("  GET /v1/bodies                 Resolvable body names")
	fmt.Println("  GET /v1/sky                    Sky chart as JSON")
	fmt.Println("  GET /v1/sky/chart              Rendered chart (format=png|svg)")
	fmt.Println("  GET /v1/sky/track              One body's path over a time range")
	fmt.Println("  GET /v1/sky/stream             Websocket chart stream")
	fmt.Println("  GET /v1/charts                 Recently computed charts")
	fmt.Println("  GET /v1/charts/:id             A stored chart")
	fmt.Println()
}
