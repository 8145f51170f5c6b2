package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher delivers pipeline events.
type Publisher interface {
	PublishScoreUpserted(ctx context.Context, scores ...ScoreUpserted) error
	PublishRunCompleted(ctx context.Context, run RunCompleted) error
	Close() error
}

// NopPublisher discards all events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishScoreUpserted(context.Context, ...ScoreUpserted) error { return nil }
func (NopPublisher) PublishRunCompleted(context.Context, RunCompleted) error      { return nil }
func (NopPublisher) Close() error                                                 { return nil }

// KafkaPublisher lazily manages one writer per topic.
type KafkaPublisher struct {
	brokers []string
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaPublisher creates a KafkaPublisher for the given broker list.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}
}

// PublishScoreUpserted writes score.upserted events keyed by user and game,
// so all upserts for one (user, game) pair land on one partition in order.
func (p *KafkaPublisher) PublishScoreUpserted(ctx context.Context, scores ...ScoreUpserted) error {
	msgs := make([]kafka.Message, 0, len(scores))
	for _, score := range scores {
		body, err := json.Marshal(score)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(fmt.Sprintf("%d:%s", score.UserID, score.GameID)),
			Value: body,
			Time:  time.Now().UTC(),
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(TypeScoreUpserted)},
				{Key: "run_id", Value: []byte(score.RunID)},
			},
		})
	}
	return p.write(ctx, TopicScoreEvents, msgs...)
}

// PublishRunCompleted writes the run summary keyed by run id.
func (p *KafkaPublisher) PublishRunCompleted(ctx context.Context, run RunCompleted) error {
	body, err := json.Marshal(run)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(run.RunID),
		Value: body,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(TypeRunCompleted)},
			{Key: "run_id", Value: []byte(run.RunID)},
		},
	}
	return p.write(ctx, TopicScoreRuns, msg)
}

func (p *KafkaPublisher) write(ctx context.Context, topic string, msgs ...kafka.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return p.writerForTopic(topic).WriteMessages(ctx, msgs...)
}

func (p *KafkaPublisher) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
	p.writers[topic] = writer
	return writer
}

// Close releases all writers.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}

// ForBrokers returns a Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func ForBrokers(brokers []string) Publisher {
	if len(brokers) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(brokers)
}
