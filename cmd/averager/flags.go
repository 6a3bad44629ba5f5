package main

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/window-averager/pkg/window"
)

// commonFlags are shared by every command that builds a window and a gateway.
// The provider flags fall back to PROVIDER_BASE_URL and PROVIDER_TIMEOUT.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable verbose logging",
			EnvVars: []string{"VERBOSE"},
			Value:   false,
		},
		&cli.IntFlag{
			Name:    "window-size",
			Aliases: []string{"w"},
			Usage:   "Maximum number of distinct values kept in the window",
			EnvVars: []string{"WINDOW_SIZE"},
			Value:   window.DefaultCapacity,
		},
		&cli.StringFlag{
			Name:  "provider-base-url",
			Usage: "Base URL the category endpoints are resolved against",
		},
		&cli.DurationFlag{
			Name:  "provider-timeout",
			Usage: "Upper bound for a single provider fetch",
		},
	}
}

func submitFlags() []cli.Flag {
	return commonFlags()
}

// serveFlags returns all CLI flags for the serve command
func serveFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.StringFlag{
			Name:    "listen-addr",
			Aliases: []string{"l"},
			Usage:   "Address the HTTP API listens on",
			EnvVars: []string{"LISTEN_ADDR"},
			Value:   ":9876",
		},
		&cli.StringFlag{
			Name:    "metrics-host",
			Usage:   "Host for Prometheus metrics server (empty for all interfaces)",
			EnvVars: []string{"METRICS_HOST"},
			Value:   "",
		},
		&cli.IntFlag{
			Name:    "metrics-port",
			Aliases: []string{"m"},
			Usage:   "Port for Prometheus metrics server",
			EnvVars: []string{"METRICS_PORT"},
			Value:   9090,
		},
		&cli.StringFlag{
			Name:    "environment",
			Usage:   "Deployment environment for metrics labels (e.g., 'production', 'staging')",
			EnvVars: []string{"ENVIRONMENT"},
			Value:   "",
		},
		&cli.StringFlag{
			Name:    "region",
			Usage:   "Cloud region for metrics labels (e.g., 'us-east-1')",
			EnvVars: []string{"REGION"},
			Value:   "",
		},
		&cli.StringFlag{
			Name:    "cloud-provider",
			Usage:   "Cloud provider for metrics labels (e.g., 'aws', 'oci', 'gcp')",
			EnvVars: []string{"CLOUD_PROVIDER"},
			Value:   "",
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Kafka brokers ingest events are published to (comma-separated); publishing is off when empty",
			EnvVars: []string{"KAFKA_BROKERS"},
		},
		&cli.StringFlag{
			Name:    "kafka-topic",
			Aliases: []string{"t"},
			Usage:   "Kafka topic for ingest events",
			EnvVars: []string{"KAFKA_TOPIC"},
			Value:   "window-ingests",
		},
		&cli.StringFlag{
			Name:    "kafka-client-id",
			Usage:   "The Kafka client ID to use",
			EnvVars: []string{"KAFKA_CLIENT_ID"},
			Value:   "window-averager",
		},
		&cli.BoolFlag{
			Name:    "kafka-enable-logs",
			Usage:   "Enable Kafka client logs",
			EnvVars: []string{"KAFKA_ENABLE_LOGS"},
			Value:   false,
		},
		&cli.IntFlag{
			Name:    "kafka-topic-num-partitions",
			Usage:   "Number of partitions for the ingest topic",
			EnvVars: []string{"KAFKA_TOPIC_NUM_PARTITIONS"},
			Value:   1,
		},
		&cli.IntFlag{
			Name:    "kafka-topic-replication-factor",
			Usage:   "Replication factor for the ingest topic",
			EnvVars: []string{"KAFKA_TOPIC_REPLICATION_FACTOR"},
			Value:   1,
		},
		&cli.StringFlag{
			Name:    "kafka-sasl-username",
			Usage:   "SASL username; authentication is off when empty",
			EnvVars: []string{"KAFKA_SASL_USERNAME"},
		},
		&cli.StringFlag{
			Name:    "kafka-sasl-password",
			Usage:   "SASL password",
			EnvVars: []string{"KAFKA_SASL_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "kafka-sasl-mechanism",
			Usage:   "SASL mechanism (PLAIN, SCRAM-SHA-256, SCRAM-SHA-512)",
			EnvVars: []string{"KAFKA_SASL_MECHANISM"},
			Value:   "PLAIN",
		},
		&cli.StringFlag{
			Name:    "kafka-security-protocol",
			Usage:   "Kafka security protocol when SASL is enabled",
			EnvVars: []string{"KAFKA_SECURITY_PROTOCOL"},
			Value:   "SASL_SSL",
		},
		&cli.DurationFlag{
			Name:    "publish-timeout",
			Usage:   "Upper bound for publishing one ingest event",
			EnvVars: []string{"PUBLISH_TIMEOUT"},
			Value:   5 * time.Second,
		},
	)
}
