package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IBM/sarama"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	cfg.ClientID = "pousada-console"
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	g, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{group: g, handler: handler, logger: logger}, nil
}

func (c *Consumer) Run(ctx context.Context, topics []string) error {
	for {
		if err := c.group.Consume(ctx, topics, consumerGroupHandler{handler: c.handler, logger: c.logger}); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type consumerGroupHandler struct {
	handler MessageHandler
	logger  *slog.Logger
}

func (h consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks every message, including ones the handler could not
// process: a cache invalidation that is skipped only delays freshness until
// the entry expires.
func (h consumerGroupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.handler.Handle(sess.Context(), message); err != nil {
			h.logger.Warn("kafka message skipped",
				"topic", message.Topic,
				"partition", message.Partition,
				"offset", message.Offset,
				"error", err,
			)
		}
		sess.MarkMessage(message, "")
	}
	return nil
}
