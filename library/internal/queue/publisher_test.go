package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/Astemirdum/library-management/library/internal/queue"
	"github.com/Astemirdum/library-management/pkg/circuit_breaker"
)

const topic = "library.rental.events"

func TestPublisher_Publish(t *testing.T) {
	t.Parallel()
	ev := model.RentalEvent{
		EventID:    "c0a8b5ba-3b6c-4c59-9a39-3bd2f4fcbb11",
		Action:     model.ActionRented,
		UserID:     1,
		CopyID:     10,
		RentalID:   5,
		OccurredAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		producer := mocks.NewSyncProducer(t, nil)
		producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
			if msg.Topic != topic {
				return errors.New("wrong topic " + msg.Topic)
			}
			key, _ := msg.Key.Encode()
			if string(key) != "10" {
				return errors.New("wrong key " + string(key))
			}
			value, _ := msg.Value.Encode()
			var got model.RentalEvent
			if err := json.Unmarshal(value, &got); err != nil {
				return err
			}
			if got != ev {
				return errors.New("payload mismatch")
			}
			return nil
		})
		p := queue.NewPublisher(producer, circuit_breaker.New(circuit_breaker.DefaultConfig()), topic, zap.NewNop())
		require.NoError(t, p.Publish(context.Background(), ev))
		require.NoError(t, p.Close())
	})

	t.Run("broker failures open the breaker", func(t *testing.T) {
		t.Parallel()
		producer := mocks.NewSyncProducer(t, nil)
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
		cb := circuit_breaker.New(circuit_breaker.Config{
			Window:        2,
			FailureRatio:  1,
			Cooldown:      time.Minute,
			RecoveryCalls: 1,
		})
		p := queue.NewPublisher(producer, cb, topic, zap.NewNop())

		require.ErrorIs(t, p.Publish(context.Background(), ev), sarama.ErrOutOfBrokers)
		require.ErrorIs(t, p.Publish(context.Background(), ev), sarama.ErrOutOfBrokers)
		require.ErrorIs(t, p.Publish(context.Background(), ev), circuit_breaker.ErrOpen)
		require.NoError(t, p.Close())
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		producer := mocks.NewSyncProducer(t, nil)
		p := queue.NewPublisher(producer, circuit_breaker.New(circuit_breaker.DefaultConfig()), topic, zap.NewNop())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.ErrorIs(t, p.Publish(ctx, ev), context.Canceled)
		require.NoError(t, p.Close())
	})
}
