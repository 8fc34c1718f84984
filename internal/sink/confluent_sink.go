package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog"

	"github.com/chesko21/tiktok-live-connector/internal/domain"
)

// ConfluentSink publishes OutboundEvents to a Kafka topic, keyed by
// streamer id for consistent partition assignment.
type ConfluentSink struct {
	producer *kafka.Producer
	topic    string
	doneCh   chan struct{}
	logger   zerolog.Logger
}

func NewConfluentSink(brokers, topic string, partitions int, logger zerolog.Logger) (*ConfluentSink, error) {
	// Ensure topic exists with desired partition count
	if err := ensureTopic(brokers, topic, partitions); err != nil {
		logger.Warn().Err(err).Str("topic", topic).Msg("failed to ensure topic (may already exist)")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	s := &ConfluentSink{
		producer: p,
		topic:    topic,
		doneCh:   make(chan struct{}),
		logger:   logger,
	}

	go s.deliveryReportHandler()

	return s, nil
}

func ensureTopic(brokers, topic string, partitions int) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{
		{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: 1,
		},
	})
	if err != nil {
		return err
	}

	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError && result.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %v", result.Topic, result.Error)
		}
	}

	return nil
}

func (s *ConfluentSink) deliveryReportHandler() {
	for e := range s.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				s.logger.Warn().Err(ev.TopicPartition.Error).Msg("kafka delivery failed")
			}
		}
	}
	close(s.doneCh)
}

func (s *ConfluentSink) Publish(ctx context.Context, streamerID string, event domain.OutboundEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal outbound event: %w", err)
	}

	err = s.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &s.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(streamerID),
		Value: value,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce event: %w", err)
	}

	return nil
}

func (s *ConfluentSink) Close() error {
	s.producer.Flush(5000)
	s.producer.Close()
	<-s.doneCh
	return nil
}

var _ EventSink = (*ConfluentSink)(nil)
