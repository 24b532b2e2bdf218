// @title        Trace Insights API
// @version      1.0
// @description  Distributed-tracing ingestion and test-result analytics service.
// @BasePath     /
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/arc-self/apps/trace-insights/docs"
	"github.com/arc-self/apps/trace-insights/internal/bus"
	"github.com/arc-self/apps/trace-insights/internal/cleanup"
	"github.com/arc-self/apps/trace-insights/internal/domain"
	"github.com/arc-self/apps/trace-insights/internal/httpapi"
	"github.com/arc-self/apps/trace-insights/internal/ingest"
	"github.com/arc-self/apps/trace-insights/internal/platform/config"
	"github.com/arc-self/apps/trace-insights/internal/platform/secrets"
	"github.com/arc-self/apps/trace-insights/internal/platform/telemetry"
	"github.com/arc-self/apps/trace-insights/internal/reporter"
	"github.com/arc-self/apps/trace-insights/internal/store"
	"github.com/arc-self/apps/trace-insights/internal/streamer"
	"github.com/arc-self/apps/trace-insights/internal/traceparser"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load(envOr("CONFIG_PATH", "."))
	if err != nil {
		logger.Fatal("failed to load config.toml", zap.Error(err))
	}

	ctx := context.Background()

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		tp, err := telemetry.InitTracer(ctx, "trace-insights", endpoint)
		if err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(ctx)
		}
		mp, err := telemetry.InitMeterProvider(ctx, "trace-insights", endpoint)
		if err != nil {
			logger.Error("failed to init OTel meter provider", zap.Error(err))
		} else {
			defer mp.Shutdown(ctx)
		}
	}

	dbURL, natsURL, redisURL := resolveConnections(cfg, logger)

	st, err := store.Open(ctx, dbURL, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer st.Close()

	var querier store.Querier = st
	if redisURL != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisURL})
		defer rdb.Close()
		querier = store.NewCachedStore(st, rdb, store.DefaultCacheTTL)
	}

	b, err := bus.Connect(natsURL, logger)
	if err != nil {
		logger.Fatal("failed to connect to NATS", zap.Error(err))
	}
	defer b.Close()
	if err := b.ProvisionStreams(); err != nil {
		logger.Fatal("failed to provision streams", zap.Error(err))
	}

	ingestor := ingest.New(querier, b, logger)

	placementHook := func(ctx context.Context, p domain.ReportPlacement) error {
		return querier.UpsertReportPlacement(ctx, p, time.Now())
	}
	engine := streamer.NewEngine(logger)
	stream := streamer.New(engine, placementHook, logger)
	if scripts, err := querier.ListScripts(ctx, domain.ExecutableTypes); err != nil {
		logger.Error("failed to load scripts at startup", zap.Error(err))
	} else {
		stream.LoadScripts(scripts)
	}

	parser := traceparser.New(querier, b, logger)
	report := reporter.New(querier, logger)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	startConsumer(runCtx, b, bus.SubjectTraceDone, "trace-parser", parser.Handle, logger)
	startConsumer(runCtx, b, bus.SubjectTestResult, "streamer", stream.Handle, logger)
	startConsumer(runCtx, b, bus.SubjectTestResult, "reporter", report.Handle, logger)

	cleanupTimer, err := cleanup.New(querier, cleanup.Retention{
		ShellAge:    cfg.Cleanup.ShellAge(),
		WithDataAge: cfg.Cleanup.WithDataAge(),
		ReportAge:   cfg.Cleanup.ReportAge(),
	}, cfg.Cleanup.Schedule, logger)
	if err != nil {
		logger.Fatal("failed to schedule cleanup timer", zap.Error(err))
	}
	cleanupTimer.Start()
	defer cleanupTimer.Stop()

	server := httpapi.New(httpapi.Deps{Querier: querier, Ingestor: ingestor, Scripts: stream, Log: logger})

	listener, err := acquireListener(cfg.Host, cfg.Port)
	if err != nil {
		logger.Fatal("failed to acquire listener", zap.Error(err))
	}
	server.Echo().Listener = listener

	go func() {
		logger.Info("trace-insights HTTP server listening", zap.String("addr", listener.Addr().String()))
		if err := server.Echo().Start(""); err != nil {
			logger.Info("HTTP server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancelRun()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Echo().Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown error", zap.Error(err))
	}

	logger.Info("trace-insights shut down cleanly")
}

// acquireListener honors the LISTEN_FD socket-activation convention: if
// set, the process inherits an already-bound listening socket from its
// supervisor instead of binding its own.
func acquireListener(host string, port int) (net.Listener, error) {
	if fdStr := os.Getenv("LISTEN_FD"); fdStr != "" {
		fd, err := strconv.Atoi(fdStr)
		if err != nil {
			return nil, fmt.Errorf("invalid LISTEN_FD: %w", err)
		}
		file := os.NewFile(uintptr(fd), "listen-fd")
		return net.FileListener(file)
	}
	return net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
}

func startConsumer(ctx context.Context, b *bus.Bus, subject, durable string, handle bus.Handler, log *zap.Logger) {
	consumer := bus.NewConsumer(b.JS, subject, durable, log)
	go func() {
		if err := consumer.Run(ctx, handle); err != nil {
			log.Error("consumer stopped", zap.String("subject", subject), zap.String("durable", durable), zap.Error(err))
		}
	}()
}

// resolveConnections starts from the config.toml/env values; when
// VAULT_ADDR is set, any PG_URL, NATS_URL or REDIS_URL found in the Vault
// KV2 secret overrides the matching value, mirroring abc-service's own
// secret-loading sequence.
func resolveConnections(cfg config.Config, logger *zap.Logger) (dbURL, natsURL, redisURL string) {
	dbURL, natsURL, redisURL = cfg.DBURL, cfg.NatsURL, cfg.RedisURL

	vaultAddr := os.Getenv("VAULT_ADDR")
	if vaultAddr == "" {
		return dbURL, natsURL, redisURL
	}
	vaultToken := envOr("VAULT_TOKEN", "root")
	secretPath := envOr("VAULT_SECRET_PATH", "secret/data/arc/trace-insights")

	manager, err := secrets.NewManager(vaultAddr, vaultToken)
	if err != nil {
		logger.Fatal("vault connection failed", zap.Error(err))
	}
	data, err := manager.GetKV2(secretPath)
	if err != nil {
		logger.Fatal("failed to load secrets from vault", zap.Error(err))
	}

	if v := secrets.String(data, "PG_URL"); v != "" {
		dbURL = v
	}
	if v := secrets.String(data, "NATS_URL"); v != "" {
		natsURL = v
	}
	if v := secrets.String(data, "REDIS_URL"); v != "" {
		redisURL = v
	}
	return dbURL, natsURL, redisURL
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
