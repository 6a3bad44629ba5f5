package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/window-averager/pkg/kafka"
	"github.com/ava-labs/window-averager/pkg/provider"

	confluentKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Config holds all configuration for the averager commands
type Config struct {
	// Application settings
	Verbose bool

	// Window settings
	WindowSize int
	Provider   provider.Config

	// API settings
	ListenAddr string

	// Kafka settings
	KafkaBrokers                string
	KafkaTopic                  string
	KafkaClientID               string
	KafkaEnableLogs             bool
	KafkaTopicNumPartitions     int
	KafkaTopicReplicationFactor int
	KafkaSASL                   kafka.SASLConfig
	PublishTimeout              time.Duration

	// Metrics settings
	MetricsHost   string
	MetricsPort   int
	Environment   string
	Region        string
	CloudProvider string
}

// MetricsAddr returns the formatted metrics address
func (c *Config) MetricsAddr() string {
	return fmt.Sprintf("%s:%d", c.MetricsHost, c.MetricsPort)
}

// PublishEnabled reports whether ingest events go to Kafka.
func (c *Config) PublishEnabled() bool {
	return c.KafkaBrokers != ""
}

// KafkaProducerConfig builds a Kafka producer ConfigMap from the config
func (c *Config) KafkaProducerConfig() *confluentKafka.ConfigMap {
	cm := kafka.NewConfigMap(c.KafkaBrokers, c.KafkaClientID, c.KafkaEnableLogs)
	c.KafkaSASL.ApplyToConfigMap(cm)
	return cm
}

// KafkaAdminConfig builds the ConfigMap for the topic admin client.
func (c *Config) KafkaAdminConfig() *confluentKafka.ConfigMap {
	cm := &confluentKafka.ConfigMap{"bootstrap.servers": c.KafkaBrokers}
	c.KafkaSASL.ApplyToConfigMap(cm)
	return cm
}

// TopicConfig describes the ingest topic.
func (c *Config) TopicConfig() kafka.TopicConfig {
	return kafka.TopicConfig{
		Name:              c.KafkaTopic,
		NumPartitions:     c.KafkaTopicNumPartitions,
		ReplicationFactor: c.KafkaTopicReplicationFactor,
	}
}

// buildConfig builds a Config from CLI context flags
func buildConfig(c *cli.Context) (*Config, error) {
	providerCfg, err := buildProviderConfig(c)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider config: %w", err)
	}

	windowSize := c.Int("window-size")
	if windowSize < 1 {
		return nil, fmt.Errorf("window-size must be at least 1, got %d", windowSize)
	}

	return &Config{
		Verbose:                     c.Bool("verbose"),
		WindowSize:                  windowSize,
		Provider:                    providerCfg,
		ListenAddr:                  c.String("listen-addr"),
		KafkaBrokers:                c.String("kafka-brokers"),
		KafkaTopic:                  c.String("kafka-topic"),
		KafkaClientID:               c.String("kafka-client-id"),
		KafkaEnableLogs:             c.Bool("kafka-enable-logs"),
		KafkaTopicNumPartitions:     c.Int("kafka-topic-num-partitions"),
		KafkaTopicReplicationFactor: c.Int("kafka-topic-replication-factor"),
		KafkaSASL: kafka.SASLConfig{
			Username:         c.String("kafka-sasl-username"),
			Password:         c.String("kafka-sasl-password"),
			Mechanism:        c.String("kafka-sasl-mechanism"),
			SecurityProtocol: c.String("kafka-security-protocol"),
		},
		PublishTimeout: c.Duration("publish-timeout"),
		MetricsHost:    c.String("metrics-host"),
		MetricsPort:    c.Int("metrics-port"),
		Environment:    c.String("environment"),
		Region:         c.String("region"),
		CloudProvider:  c.String("cloud-provider"),
	}, nil
}

// buildProviderConfig reads PROVIDER_* from the environment and lets the
// provider flags override it.
func buildProviderConfig(c *cli.Context) (provider.Config, error) {
	cfg, err := provider.LoadConfig()
	if err != nil {
		return provider.Config{}, err
	}
	if c.IsSet("provider-base-url") {
		cfg.BaseURL = c.String("provider-base-url")
	}
	if c.IsSet("provider-timeout") {
		cfg.Timeout = c.Duration("provider-timeout")
	}
	if cfg.Timeout <= 0 {
		return provider.Config{}, errors.New("provider timeout must be positive")
	}
	return cfg, nil
}
