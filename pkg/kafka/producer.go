package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// Msg is a single record to produce.
type Msg struct {
	Topic string
	Key   []byte
	Value []byte
}

// Producer is a synchronous Kafka producer.
//
// Produce blocks until a delivery confirmation is received from Kafka.
// A background goroutine watches producer events (and, when enabled,
// librdkafka logs) and reports fatal errors on Errors.
//
// Close MUST be called at least once to stop background goroutines and flush
// all in-flight messages.
type Producer struct {
	producer   *kafka.Producer
	log        *zap.SugaredLogger
	errCh      chan error
	eventsDone chan struct{}
	closedCh   chan struct{}
	once       sync.Once
}

const queueFullRetryDelay = 200 * time.Millisecond

// NewConfigMap builds the producer configuration used for ingest events.
func NewConfigMap(brokers, clientID string, enableLogs bool) *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"client.id":         clientID,

		// Ingest events are small and rare; favour durability over batching.
		"acks":               "all",
		"enable.idempotence": true,
		"linger.ms":          0,
		"compression.type":   "lz4",

		"go.logs.channel.enable": enableLogs,
	}
}

// NewProducer creates a Kafka producer.
//
// The provided context controls the lifetime of the background goroutine.
// Callers must call Close to flush messages and release resources.
func NewProducer(ctx context.Context, conf *kafka.ConfigMap, log *zap.SugaredLogger) (*Producer, error) {
	logsEnabled, err := conf.Get("go.logs.channel.enable", false)
	if err != nil {
		return nil, fmt.Errorf("failed to get go.logs.channel.enable: %w", err)
	}

	p, err := kafka.NewProducer(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	kp := &Producer{
		producer:   p,
		log:        log,
		errCh:      make(chan error, 1),
		eventsDone: make(chan struct{}),
		closedCh:   make(chan struct{}),
	}
	go kp.watch(ctx, logsEnabled.(bool))

	return kp, nil
}

// Produce synchronously produces msg.
//
// Produce blocks until either a delivery receipt is received or ctx is done.
// A full local queue is retried until ctx expires. If ctx is canceled before
// delivery confirmation, Produce returns ctx.Err() and the message MAY still
// be delivered afterwards.
func (p *Producer) Produce(ctx context.Context, msg Msg) error {
	deliveryCh := make(chan kafka.Event, 1)

	kMsg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &msg.Topic,
			Partition: kafka.PartitionAny,
		},
		Key:   msg.Key,
		Value: msg.Value,
	}

	for {
		err := p.producer.Produce(kMsg, deliveryCh)
		if err == nil {
			break
		}
		if !isQueueFull(err) {
			return produceError(err)
		}
		p.log.Warnw("producer queue full, retrying", "delay", queueFullRetryDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(queueFullRetryDelay):
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryCh:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event: %T", e)
		}
		if err := m.TopicPartition.Error; err != nil {
			return fmt.Errorf("delivery failed: %w", err)
		}
		p.log.Debugw("delivered",
			"topic", msg.Topic,
			"partition", m.TopicPartition.Partition,
			"offset", m.TopicPartition.Offset,
		)
		return nil
	}
}

// Errors returns a channel that receives at most one fatal error.
// The channel is closed when the producer shuts down.
// Non-fatal Kafka errors are logged and ignored.
func (p *Producer) Errors() <-chan error {
	return p.errCh
}

// Close stops the background goroutine and flushes pending messages for at
// most timeout. Calling Close multiple times does nothing.
func (p *Producer) Close(timeout time.Duration) {
	p.once.Do(func() {
		p.log.Info("closing kafka producer")
		defer close(p.errCh)

		close(p.closedCh)
		<-p.eventsDone

		if pending := p.producer.Flush(int(timeout.Milliseconds())); pending > 0 {
			p.log.Warnw("flush incomplete, messages will be lost", "pending", pending)
		}
		p.producer.Close()
		p.log.Info("kafka producer closed")
	})
}

func (p *Producer) watch(ctx context.Context, logsEnabled bool) {
	defer close(p.eventsDone)

	var logs chan kafka.LogEvent
	if logsEnabled {
		logs = p.producer.Logs()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.closedCh:
			return
		case l, ok := <-logs:
			if !ok {
				logs = nil
				continue
			}
			p.log.Debugw("librdkafka", "level", l.Level, "tag", l.Tag, "message", l.Message)
		case ev, ok := <-p.producer.Events():
			if !ok {
				p.fail(fmt.Errorf("kafka producer event channel closed"))
				return
			}
			switch e := ev.(type) {
			case kafka.Error:
				if e.IsFatal() || e.Code() == kafka.ErrAllBrokersDown {
					p.fail(fmt.Errorf("fatal err or ErrAllBrokersDown: %#x, %w", e.Code(), e))
					return
				}
				p.log.Warnw("ignoring kafka error", "code", e.Code(), "error", e)
			case *kafka.Message:
				// Deliveries arrive on the per-message channel.
				p.log.Warnw("unexpected delivery report on events channel", "topic_partition", e.TopicPartition)
			default:
				p.log.Debugw("kafka event", "event", e.String())
			}
		}
	}
}

func (p *Producer) fail(err error) {
	select {
	case p.errCh <- err:
	default:
		p.log.Warnw("error channel is full", "error", err)
	}
}

func isQueueFull(err error) bool {
	kafkaErr, ok := err.(kafka.Error)
	return ok && kafkaErr.Code() == kafka.ErrQueueFull
}

func produceError(err error) error {
	kafkaErr, ok := err.(kafka.Error)
	if !ok {
		return fmt.Errorf("failed to produce: %w", err)
	}
	switch kafkaErr.Code() {
	case kafka.ErrBrokerNotAvailable:
		return fmt.Errorf("broker not available: %w", err)
	case kafka.ErrInvalidMsgSize:
		return fmt.Errorf("invalid message size: %w", err)
	case kafka.ErrUnknownTopicOrPart:
		return fmt.Errorf("unknown topic or partition: %w", err)
	case kafka.ErrAuthentication:
		return fmt.Errorf("authentication error: %w", err)
	default:
		return fmt.Errorf("failed to produce: %w", err)
	}
}
