package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ava-labs/window-averager/pkg/kafka/message"
	"github.com/ava-labs/window-averager/pkg/window"
)

// MsgProducer produces a single message synchronously. *Producer implements it.
type MsgProducer interface {
	Produce(ctx context.Context, msg Msg) error
}

var _ MsgProducer = (*Producer)(nil)

// IngestPublisher publishes every window update as a message.Ingest envelope
// keyed by category.
type IngestPublisher struct {
	producer MsgProducer
	topic    string
	log      *zap.SugaredLogger
	now      func() time.Time
	newID    func() string
}

func NewIngestPublisher(producer MsgProducer, topic string, log *zap.SugaredLogger) *IngestPublisher {
	return &IngestPublisher{
		producer: producer,
		topic:    topic,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Publish encodes res and blocks until the broker acknowledges it.
func (p *IngestPublisher) Publish(ctx context.Context, category string, res window.IngestResult) error {
	env, err := message.Seal(message.TypeIngest, message.IngestVersion, p.newID(), p.now(), message.Ingest{
		Category: category,
		Previous: res.Previous,
		Fetched:  res.Fetched,
		Updated:  res.Updated,
		Average:  res.Average,
		Accepted: res.Accepted,
		Evicted:  res.Evicted,
	})
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if err := p.producer.Produce(ctx, Msg{
		Topic: p.topic,
		Key:   []byte(category),
		Value: value,
	}); err != nil {
		return fmt.Errorf("failed to publish ingest event %s: %w", env.ID, err)
	}

	p.log.Debugw("published ingest event", "id", env.ID, "category", category, "topic", p.topic)
	return nil
}
