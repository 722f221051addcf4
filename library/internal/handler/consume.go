package handler

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/metrics"
	"github.com/Astemirdum/library-management/library/internal/model"
)

// CommandDeduper remembers which command ids were already processed.
type CommandDeduper interface {
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

const (
	defaultRetryInitial = 100 * time.Millisecond
	defaultRetryLimit   = 10 * time.Second
)

type Consumer struct {
	rentalSvc RentalService
	dedup     CommandDeduper
	log       *zap.Logger

	retryInitial time.Duration
	retryLimit   time.Duration

	ready     chan struct{}
	readyOnce sync.Once
}

type ConsumerOption func(*Consumer)

// WithRetryBackoff sets the first and the largest pause between attempts
// at a command that failed for a non business reason.
func WithRetryBackoff(initial, limit time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.retryInitial = initial
		c.retryLimit = limit
	}
}

// NewConsumer builds the rental command consumer. dedup may be nil.
func NewConsumer(rentalSvc RentalService, dedup CommandDeduper, log *zap.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		rentalSvc:    rentalSvc,
		dedup:        dedup,
		log:          log.Named("consumer"),
		retryInitial: defaultRetryInitial,
		retryLimit:   defaultRetryLimit,
		ready:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ready is closed once the first session has been set up.
func (consumer *Consumer) Ready() <-chan struct{} {
	return consumer.ready
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	// Setup runs again on every rebalance
	consumer.readyOnce.Do(func() { close(consumer.ready) })
	return nil
}

func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			// offsets are committed cumulatively, nothing after an unhandled message may be marked
			if !consumer.process(session.Context(), message) {
				return nil
			}
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// process retries message until it is handled. It returns false when ctx is
// done first, leaving the message for the next session.
func (consumer *Consumer) process(ctx context.Context, message *sarama.ConsumerMessage) bool {
	delay := consumer.retryInitial
	for attempt := 1; ; attempt++ {
		err := consumer.handle(ctx, message)
		if err == nil {
			return true
		}
		consumer.log.Warn("rental command failed, retrying",
			zap.Error(err),
			zap.Int64("offset", message.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false
		}
		delay = min(delay*2, consumer.retryLimit)
	}
}

// handle applies one message. A nil error means the message is done with,
// applied or not, and its offset may be committed.
func (consumer *Consumer) handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var cmd model.RentalCommand
	if err := json.Unmarshal(message.Value, &cmd); err != nil {
		consumer.log.Error("decode rental command", zap.Error(err), zap.Int64("offset", message.Offset))
		return nil
	}
	if err := validateCommand(cmd); err != nil {
		consumer.log.Error("invalid rental command", zap.Error(err), zap.String("commandId", cmd.CommandID))
		return nil
	}
	log := consumer.log.With(zap.String("commandId", cmd.CommandID), zap.String("type", string(cmd.Type)))

	if consumer.dedup != nil {
		first, err := consumer.dedup.Claim(ctx, cmd.CommandID)
		if err != nil {
			return err
		}
		if !first {
			metrics.CommandsDedupTotal.WithLabelValues("hit").Inc()
			log.Info("duplicate rental command skipped")
			return nil
		}
		metrics.CommandsDedupTotal.WithLabelValues("miss").Inc()
	}

	err := consumer.apply(ctx, cmd)
	switch {
	case err == nil:
		log.Debug("rental command applied", zap.Int64("copyId", cmd.CopyID), zap.Int64("userId", cmd.UserID))
		return nil
	case isRejection(err):
		log.Warn("rental command rejected", zap.Error(err))
		return nil
	}
	if consumer.dedup != nil {
		// the claim must not outlive a failed attempt or the retry is taken for a duplicate
		if relErr := consumer.dedup.Release(context.WithoutCancel(ctx), cmd.CommandID); relErr != nil {
			log.Error("dedup release", zap.Error(relErr))
		}
	}
	return errors.Wrapf(err, "command %s", cmd.CommandID)
}

func (consumer *Consumer) apply(ctx context.Context, cmd model.RentalCommand) error {
	actor := model.Actor{ID: cmd.UserID, IsAdmin: cmd.IsAdmin}
	var err error
	switch cmd.Type {
	case model.CommandRent:
		_, err = consumer.rentalSvc.Rent(ctx, actor, cmd.CopyID)
	case model.CommandReturn:
		_, err = consumer.rentalSvc.Return(ctx, cmd.CopyID, actor)
	}
	return err
}

func validateCommand(cmd model.RentalCommand) error {
	switch {
	case cmd.CommandID == "":
		return errors.New("commandId is empty")
	case cmd.Type != model.CommandRent && cmd.Type != model.CommandReturn:
		return errors.Errorf("unknown command type %q", cmd.Type)
	case cmd.UserID <= 0:
		return errors.New("userId must be positive")
	case cmd.CopyID <= 0:
		return errors.New("copyId must be positive")
	}
	return nil
}

// isRejection separates business rule violations from infrastructure failures.
func isRejection(err error) bool {
	return errors.Is(err, errs.ErrNotFound) ||
		errors.Is(err, errs.ErrConflict) ||
		errors.Is(err, errs.ErrInvalidArgument) ||
		errors.Is(err, errs.ErrForbidden)
}
