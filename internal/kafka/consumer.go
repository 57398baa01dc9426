package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume читает события брони до отмены контекста или первой ошибки обработчика.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, ReservationEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		var event ReservationEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			// Битое сообщение пропускаем, чтобы не останавливать обработку.
			log.Printf("decode reservation event: %v", err)
			continue
		}

		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}
