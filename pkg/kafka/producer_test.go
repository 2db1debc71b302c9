package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestProducerSendUsesTopicAndKey(t *testing.T) {
	t.Parallel()

	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "order-events" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "1023" {
			return errors.New("unexpected key " + string(key))
		}
		return nil
	})

	p := NewProducerWith(mock, "order-events")
	if err := p.Send(context.Background(), "1023", []byte(`{"type":"order.cancelled"}`)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestProducerSendWrapsBrokerError(t *testing.T) {
	t.Parallel()

	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerWith(mock, "order-events")
	err := p.Send(context.Background(), "2042", []byte("{}"))
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers, got %v", err)
	}
	_ = p.Close()
}

func TestProducerSendHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	mock := mocks.NewSyncProducer(t, nil)
	p := NewProducerWith(mock, "order-events")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Send(ctx, "1", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	_ = p.Close()
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := Config{Brokers: []string{"localhost:9092"}, Topic: "order-events"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := (&Config{Topic: "x"}).Validate(); err == nil {
		t.Fatal("expected error for missing brokers")
	}

	conf := SaramaConfig(Config{ClientID: "desk", MaxRetry: 2})
	if !conf.Producer.Return.Successes || conf.Producer.RequiredAcks != sarama.WaitForAll {
		t.Fatalf("unexpected producer config: %+v", conf.Producer)
	}
	if conf.ClientID != "desk" || conf.Producer.Retry.Max != 2 {
		t.Fatalf("unexpected client config: id=%s retry=%d", conf.ClientID, conf.Producer.Retry.Max)
	}
}
