package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const metadataTimeout = 10 * time.Second

// TopicAdmin is the subset of *kafka.AdminClient needed to provision the
// ingest topic.
type TopicAdmin interface {
	GetMetadata(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error)
	CreateTopics(ctx context.Context, topics []kafka.TopicSpecification, options ...kafka.CreateTopicsAdminOption) ([]kafka.TopicResult, error)
	CreatePartitions(ctx context.Context, partitions []kafka.PartitionsSpecification, options ...kafka.CreatePartitionsAdminOption) ([]kafka.TopicResult, error)
}

var _ TopicAdmin = (*kafka.AdminClient)(nil)

// TopicConfig describes the topic ingest events are published to.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
}

// Validate checks that the topic can be created.
func (tc TopicConfig) Validate() error {
	if tc.Name == "" {
		return errors.New("topic name cannot be empty")
	}
	if tc.NumPartitions <= 0 {
		return fmt.Errorf("number of partitions must be > 0, got %d", tc.NumPartitions)
	}
	if tc.ReplicationFactor <= 0 {
		return fmt.Errorf("replication factor must be > 0, got %d", tc.ReplicationFactor)
	}
	return nil
}

// EnsureTopic creates the topic when it is missing and grows its partition
// count when it has fewer partitions than configured. Partitions are never
// removed and the replication factor is never changed; mismatches are logged.
func EnsureTopic(ctx context.Context, admin TopicAdmin, tc TopicConfig, log *zap.SugaredLogger) error {
	if err := tc.Validate(); err != nil {
		return fmt.Errorf("invalid topic config: %w", err)
	}

	md, err := lookupTopic(admin, tc.Name)
	if err != nil {
		return err
	}
	if md == nil {
		return createTopic(ctx, admin, tc, log)
	}

	partitions := len(md.Partitions)
	if rf := replicationFactor(md); rf != tc.ReplicationFactor {
		log.Warnw("topic replication factor differs from config",
			"topic", tc.Name,
			"current", rf,
			"desired", tc.ReplicationFactor,
		)
	}

	switch {
	case partitions < tc.NumPartitions:
		return growPartitions(ctx, admin, tc, partitions, log)
	case partitions > tc.NumPartitions:
		log.Warnw("topic has more partitions than configured, keeping them",
			"topic", tc.Name,
			"current", partitions,
			"desired", tc.NumPartitions,
		)
	default:
		log.Infow("topic exists", "topic", tc.Name, "partitions", partitions)
	}
	return nil
}

// lookupTopic returns nil metadata when the topic does not exist.
func lookupTopic(admin TopicAdmin, name string) (*kafka.TopicMetadata, error) {
	md, err := admin.GetMetadata(&name, false, int(metadataTimeout.Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata for topic %q: %w", name, err)
	}
	tm, ok := md.Topics[name]
	if !ok || tm.Error.Code() == kafka.ErrUnknownTopicOrPart {
		return nil, nil
	}
	if tm.Error.Code() != kafka.ErrNoError {
		return nil, fmt.Errorf("topic %q has error: %w", name, tm.Error)
	}
	return &tm, nil
}

func createTopic(ctx context.Context, admin TopicAdmin, tc TopicConfig, log *zap.SugaredLogger) error {
	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             tc.Name,
		NumPartitions:     tc.NumPartitions,
		ReplicationFactor: tc.ReplicationFactor,
	}})
	if err != nil {
		return fmt.Errorf("failed to create topic %q: %w", tc.Name, err)
	}
	for _, r := range results {
		switch r.Error.Code() {
		case kafka.ErrNoError:
			log.Infow("created topic",
				"topic", r.Topic,
				"partitions", tc.NumPartitions,
				"replicationFactor", tc.ReplicationFactor,
			)
		case kafka.ErrTopicAlreadyExists:
			// Lost a race with another instance.
			log.Infow("topic already exists", "topic", r.Topic)
		default:
			return fmt.Errorf("failed to create topic %q: %w", r.Topic, r.Error)
		}
	}
	return nil
}

func growPartitions(ctx context.Context, admin TopicAdmin, tc TopicConfig, from int, log *zap.SugaredLogger) error {
	results, err := admin.CreatePartitions(ctx, []kafka.PartitionsSpecification{{
		Topic:      tc.Name,
		IncreaseTo: tc.NumPartitions,
	}})
	if err != nil {
		return fmt.Errorf("failed to increase partitions for topic %q: %w", tc.Name, err)
	}
	for _, r := range results {
		if r.Error.Code() != kafka.ErrNoError {
			return fmt.Errorf("failed to increase partitions for topic %q: %w", r.Topic, r.Error)
		}
	}
	log.Infow("increased topic partitions", "topic", tc.Name, "from", from, "to", tc.NumPartitions)
	return nil
}

func replicationFactor(md *kafka.TopicMetadata) int {
	if len(md.Partitions) == 0 {
		return 0
	}
	return len(md.Partitions[0].Replicas)
}
