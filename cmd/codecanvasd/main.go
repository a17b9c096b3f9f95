// Command codecanvasd serves the code explanation gateway.
//
// Usage:
//
//	GOOGLE_AI_API_KEY=... codecanvasd [flags]
//	ANTHROPIC_API_KEY=... codecanvasd [flags]
//
// Flags:
//
//	-config string   Path to a YAML config file
//	-api-key string  API key (overrides the provider's env var)
//	-debug           Development logging and gin debug mode
//
// Every config key can also be set as CODECANVAS_<KEY>, for example
// CODECANVAS_ADDR=:9000 or CODECANVAS_UPSTREAM_TIMEOUT=30s.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fwojciec/codecanvas"
	cgin "github.com/fwojciec/codecanvas/gin"
	"github.com/fwojciec/codecanvas/otel"
	"github.com/fwojciec/codecanvas/prometheus"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "codecanvasd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "Path to a YAML config file")
		apiKey     = flag.String("api-key", "", "API key (overrides the provider's env var)")
		debug      = flag.Bool("debug", false, "Development logging and gin debug mode")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *debug {
		cfg.Debug = true
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Env vars are read here and passed as values.
	provider, providerName, err := resolveProvider(ctx, cfg.Provider, apiKeys{
		flag:      *apiKey,
		googleAI:  os.Getenv("GOOGLE_AI_API_KEY"),
		gemini:    os.Getenv("GEMINI_API_KEY"),
		anthropic: os.Getenv("ANTHROPIC_API_KEY"),
	}, cfg.ThinkingBudget)
	if err != nil {
		return err
	}

	tp, shutdownTracing, err := otel.Setup(ctx, otel.Config{
		ServiceName: "codecanvasd",
		Version:     version,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		SampleRatio: cfg.TraceSampleRate,
	})
	if err != nil {
		// Tracing is optional; keep serving without it.
		logger.Error("failed to initialize tracing", zap.Error(err))
		tp, shutdownTracing, _ = otel.Setup(ctx, otel.Config{})
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to shut down tracing", zap.Error(err))
		}
	}()

	metrics := prometheus.New()
	gateway := codecanvas.NewGateway(provider,
		codecanvas.WithModel(cfg.Model),
		codecanvas.WithUpstreamTimeout(cfg.UpstreamTimeout),
		codecanvas.WithTracerProvider(tp),
	)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	server := cgin.NewServer(gateway,
		cgin.WithLogger(logger),
		cgin.WithMetrics(metrics),
		cgin.WithMetricsHandler(metrics.Handler()),
		cgin.WithTracerProvider(tp),
		cgin.WithMaxBodyBytes(cfg.MaxBodyBytes),
		cgin.WithStreamErrorText(cfg.ErrorText),
	)

	logger.Info("codecanvasd starting",
		zap.String("version", version),
		zap.String("provider", providerName),
		zap.String("model", cfg.Model),
		zap.Duration("upstream_timeout", cfg.UpstreamTimeout),
		zap.Bool("tracing", cfg.OTLPEndpoint != ""),
	)
	return server.Run(ctx, cfg.Addr, cfg.ShutdownTimeout)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	return zapConfig.Build()
}
