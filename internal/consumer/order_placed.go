package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"fraud-screening/internal/service"
)

// OrderPlacedEvent is the host platform's order-placed message. Every placed
// order is screened automatically.
type OrderPlacedEvent struct {
	OrderID     int64  `json:"order_id"`
	FLPCheckSum string `json:"flp_checksum"`
}

// OrderPlacedConsumer reads order-placed events and triggers a screening for
// each. Screening failures are logged and the message is committed anyway:
// a failed screening is not retried (the admin can re-screen manually).
type OrderPlacedConsumer struct {
	reader    *kafka.Reader
	screening *service.ScreeningService
	orders    service.OrderStore
	logger    *zap.Logger
	wg        sync.WaitGroup
}

func NewOrderPlacedConsumer(brokers []string, topic, groupID string, screening *service.ScreeningService, orders service.OrderStore, logger *zap.Logger) *OrderPlacedConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &OrderPlacedConsumer{
		reader:    reader,
		screening: screening,
		orders:    orders,
		logger:    logger,
	}
}

// Start consumes until the context is cancelled.
func (c *OrderPlacedConsumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.logger.Info("order-placed consumer started", zap.String("topic", c.reader.Config().Topic))

		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Error("failed to fetch message", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			c.handleMessage(ctx, msg)

			if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				c.logger.Error("failed to commit message", zap.Error(err))
			}
		}
	}()
}

// Stop closes the reader and waits for the consume loop to exit.
func (c *OrderPlacedConsumer) Stop() {
	c.reader.Close()
	c.wg.Wait()
	c.logger.Info("order-placed consumer stopped")
}

func (c *OrderPlacedConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	var event OrderPlacedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("skipping malformed order-placed event", zap.Error(err))
		return
	}
	if event.OrderID == 0 {
		c.logger.Warn("skipping order-placed event without order id")
		return
	}

	order, err := c.orders.GetByID(ctx, event.OrderID)
	if err != nil {
		c.logger.Error("order-placed event for unknown order",
			zap.Error(err),
			zap.Int64("order_id", event.OrderID),
		)
		return
	}

	if _, err := c.screening.ScreenOrder(ctx, order, event.FLPCheckSum); err != nil {
		if errors.Is(err, service.ErrNotConfigured) {
			c.logger.Debug("screening skipped, not configured", zap.Int64("order_id", event.OrderID))
			return
		}
		// Already logged with full context by the workflow.
		return
	}

	c.logger.Info("order screened", zap.Int64("order_id", event.OrderID))
}
