package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Brokers  []string      `split_words:"true" default:"localhost:9092"`
	Topic    string        `split_words:"true" default:"order-events"`
	ClientID string        `split_words:"true" default:"order-desk-assistant"`
	Timeout  time.Duration `split_words:"true" default:"5s"`
	MaxRetry int           `split_words:"true" default:"3"`
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(c.Topic) == "" {
		return errors.New("kafka topic is required")
	}
	return nil
}

// Producer wraps a sarama sync producer bound to a single topic.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   zerolog.Logger
}

func NewProducer(cfg Config) (*Producer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, SaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewProducerWith(producer, cfg.Topic), nil
}

// NewProducerWith wraps an existing sync producer, such as a sarama mock.
func NewProducerWith(producer sarama.SyncProducer, topic string) *Producer {
	return &Producer{
		producer: producer,
		topic:    topic,
		logger:   log.With().Str("component", "kafka").Logger(),
	}
}

func SaramaConfig(cfg Config) *sarama.Config {
	conf := sarama.NewConfig()
	conf.ClientID = cfg.ClientID
	conf.Producer.RequiredAcks = sarama.WaitForAll
	conf.Producer.Return.Successes = true
	conf.Producer.Retry.Max = cfg.MaxRetry
	conf.Producer.Retry.Backoff = 250 * time.Millisecond
	if cfg.Timeout > 0 {
		conf.Producer.Timeout = cfg.Timeout
	}
	return conf
}

func (p *Producer) Topic() string {
	return p.topic
}

// Send publishes value under key. ctx is only checked before sending;
// the sync producer has its own timeout.
func (p *Producer) Send(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(value),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send kafka message topic=%s key=%s: %w", p.topic, key, err)
	}

	p.logger.Debug().
		Str("topic", p.topic).
		Str("key", key).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("message sent")
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
