package mailqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/redmonkez12/go-contacts-api/internal/config"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
)

const publishTimeout = 5 * time.Second

// Client holds a RabbitMQ connection and a channel bound to the durable mail queue.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *logging.Logger
}

// Dial connects to RabbitMQ and declares the mail queue.
// Declaring is idempotent, so API and worker may both call it.
func Dial(cfg config.QueueConfig, logger *logging.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", cfg.QueueName, err)
	}

	logger.Info("connected to RabbitMQ", "queue", q.Name)

	return &Client{conn: conn, channel: ch, queue: q, logger: logger}, nil
}

// Close closes the channel and the connection.
func (c *Client) Close() {
	if err := c.channel.Close(); err != nil {
		c.logger.Warn("failed to close RabbitMQ channel", "error", err)
	}
	if err := c.conn.Close(); err != nil {
		c.logger.Warn("failed to close RabbitMQ connection", "error", err)
	}
}

// Enqueue publishes job as a persistent JSON message.
func (c *Client) Enqueue(ctx context.Context, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal mail job: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(publishCtx,
		"",           // exchange
		c.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish mail job: %w", err)
	}

	return nil
}

// Consume delivers queued jobs through sender until ctx is cancelled or the channel closes.
func (c *Client) Consume(ctx context.Context, sender Sender, recorder Recorder) error {
	if recorder == nil {
		recorder = nopRecorder{}
	}

	msgs, err := c.channel.Consume(
		c.queue.Name,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.Info("waiting for mail jobs", "queue", c.queue.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("RabbitMQ delivery channel closed")
			}
			processMessage(ctx, c.logger, sender, recorder, msg.Body, msg)
		}
	}
}

// acknowledger is the part of amqp.Delivery the handler needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func processMessage(ctx context.Context, logger *logging.Logger, sender Sender, recorder Recorder, body []byte, ack acknowledger) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil || job.validate() != nil {
		// a payload that cannot be decoded will never succeed, so it is not requeued
		logger.Warn("dropping malformed mail job", "body", string(body))
		recorder.RecordEmailJob(OutcomeDropped)
		if err := ack.Nack(false, false); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := Deliver(ctx, sender, job); err != nil {
		logger.Warn("failed to send confirmation email, requeueing", "email", job.To, "error", err)
		recorder.RecordEmailJob(OutcomeFailed)
		if err := ack.Nack(false, true); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	recorder.RecordEmailJob(OutcomeSent)
	if err := ack.Ack(false); err != nil {
		logger.Error("failed to ack message", "error", err)
	}
}
