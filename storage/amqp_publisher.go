package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"avito-scraper/models"
	"avito-scraper/utils"
)

// amqpChannel is the subset of *amqp.Channel used for publishing.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher emits one persistent JSON message per flushed batch onto a durable queue.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel amqpChannel
	queue   string
}

type batchMessage struct {
	BatchID   string           `json:"batch_id"`
	Region    string           `json:"region"`
	CreatedAt time.Time        `json:"created_at"`
	Count     int              `json:"count"`
	Listings  []models.Listing `json:"listings"`
}

func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	if queue == "" {
		return nil, fmt.Errorf("amqp: queue name cannot be empty")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp: failed to dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp: failed to open a channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp: failed to declare queue '%s': %w", queue, err)
	}

	return &AMQPPublisher{conn: conn, channel: ch, queue: queue}, nil
}

func (p *AMQPPublisher) WriteBatch(b Batch) error {
	if b.Len() == 0 {
		return nil
	}

	msg, err := newBatchPublishing(b)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.channel.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("amqp: failed to publish batch %s: %w", b.ID, err)
	}

	utils.Debug("Published batch %s (%d listings) to %s", b.ID, b.Len(), p.queue)
	return nil
}

func newBatchPublishing(b Batch) (amqp.Publishing, error) {
	body, err := json.Marshal(batchMessage{
		BatchID:   b.ID.String(),
		Region:    b.Region,
		CreatedAt: b.CreatedAt,
		Count:     b.Len(),
		Listings:  b.Listings,
	})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("amqp: failed to marshal batch %s: %w", b.ID, err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    b.ID.String(),
		Timestamp:    b.CreatedAt,
		Headers: amqp.Table{
			"event-type":    "ListingBatchFlushed",
			"event-version": "1.0.0",
			"region":        b.Region,
		},
	}, nil
}

func (p *AMQPPublisher) Close() error {
	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
		p.channel = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.conn = nil
	}
	return firstErr
}
