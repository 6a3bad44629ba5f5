package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/window-averager/pkg/api"
	"github.com/ava-labs/window-averager/pkg/averager"
	"github.com/ava-labs/window-averager/pkg/kafka"
	"github.com/ava-labs/window-averager/pkg/metrics"
	"github.com/ava-labs/window-averager/pkg/provider"
	"github.com/ava-labs/window-averager/pkg/utils"
	"github.com/ava-labs/window-averager/pkg/window"

	confluentKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const (
	flushTimeoutOnClose = 15 * time.Second
	shutdownTimeout     = 5 * time.Second
)

func serve(c *cli.Context) error {
	// Build configuration from CLI flags
	cfg, err := buildConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar, err := utils.NewSugaredLogger(c.App.Name, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	sugar.Infow("config",
		"verbose", cfg.Verbose,
		"windowSize", cfg.WindowSize,
		"providerBaseURL", cfg.Provider.BaseURL,
		"providerTimeout", cfg.Provider.Timeout,
		"listenAddr", cfg.ListenAddr,
		"kafkaBrokers", cfg.KafkaBrokers,
		"kafkaTopic", cfg.KafkaTopic,
		"kafkaSASL", cfg.KafkaSASL.Enabled(),
		"publishTimeout", cfg.PublishTimeout,
		"metricsHost", cfg.MetricsHost,
		"metricsPort", cfg.MetricsPort,
		"environment", cfg.Environment,
		"region", cfg.Region,
		"cloudProvider", cfg.CloudProvider,
	)

	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Prometheus metrics with labels for multi-instance filtering
	registry := prometheus.NewRegistry()
	m, err := metrics.NewWithLabels(registry, metrics.Labels{
		Environment:   cfg.Environment,
		Region:        cfg.Region,
		CloudProvider: cfg.CloudProvider,
	})
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := window.NewStore(cfg.WindowSize, m)
	if err != nil {
		return fmt.Errorf("failed to create window store: %w", err)
	}
	gateway, err := provider.NewGateway(cfg.Provider, sugar, m)
	if err != nil {
		return fmt.Errorf("failed to create provider gateway: %w", err)
	}
	sugar.Infow("provider gateway ready",
		"timeout", gateway.Timeout(),
		"endpoints", gateway.Endpoints(),
	)

	var (
		opts          []averager.Option
		producerErrCh <-chan error
	)
	if cfg.PublishEnabled() {
		producer, err := newIngestProducer(ctx, cfg, sugar)
		if err != nil {
			return err
		}
		defer producer.Close(flushTimeoutOnClose)

		publisher := kafka.NewIngestPublisher(producer, cfg.KafkaTopic, sugar)
		opts = append(opts, averager.WithPublisher(publisher, cfg.PublishTimeout))
		producerErrCh = producer.Errors()
	} else {
		sugar.Info("kafka brokers not set, ingest events will not be published")
	}

	svc := averager.NewService(gateway, store, sugar, m, opts...)

	// Start metrics server
	metricsServer := metrics.NewServer(cfg.MetricsAddr(), registry, svc.Health)
	metricsErrCh := metricsServer.Start()
	if cfg.MetricsHost == "" {
		sugar.Infof("metrics server listening on http://0.0.0.0:%d/metrics", cfg.MetricsPort)
	} else {
		sugar.Infof("metrics server listening on http://%s/metrics", cfg.MetricsAddr())
	}

	apiServer := api.NewServer(cfg.ListenAddr, svc, sugar)
	apiErrCh := apiServer.Start()
	sugar.Infof("api listening on %s", cfg.ListenAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return waitServer(gctx, "metrics", metricsErrCh)
	})
	g.Go(func() error {
		return waitServer(gctx, "api", apiErrCh)
	})
	if producerErrCh != nil {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case err := <-producerErrCh:
				return err
			}
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return gctx.Err()
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		sugar.Infow("exiting due to context cancellation")
		err = nil
	} else if err != nil {
		sugar.Errorw("serve failed", "error", err)
	}

	// Stop accepting submissions before the producer is flushed.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	sugar.Info("shutting down api server")
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("api server shutdown error", "error", err)
	}
	sugar.Info("shutting down metrics server")
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("metrics server shutdown error", "error", err)
	}

	sugar.Info("shutdown complete")
	return err
}

// waitServer returns the server's failure, or nil once ctx is done.
func waitServer(ctx context.Context, name string, errCh <-chan error) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%s server failed: %w", name, err)
		}
		return nil
	}
}

// newIngestProducer makes sure the ingest topic exists and opens a producer.
func newIngestProducer(ctx context.Context, cfg *Config, log *zap.SugaredLogger) (*kafka.Producer, error) {
	admin, err := confluentKafka.NewAdminClient(cfg.KafkaAdminConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka admin client: %w", err)
	}
	defer admin.Close()

	if err := kafka.EnsureTopic(ctx, admin, cfg.TopicConfig(), log); err != nil {
		return nil, fmt.Errorf("failed to ensure kafka topic exists: %w", err)
	}

	producer, err := kafka.NewProducer(ctx, cfg.KafkaProducerConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return producer, nil
}
