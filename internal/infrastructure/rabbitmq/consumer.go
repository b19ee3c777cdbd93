package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bike-resale-api/internal/domain"
)

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, e domain.Email) error
}

// Outcome is how a delivery is settled with the broker.
type Outcome int

const (
	Ack         Outcome = iota
	NackDrop            // malformed job, never retried
	NackRequeue         // delivery failed, retried later
)

func (o Outcome) String() string {
	switch o {
	case Ack:
		return "ack"
	case NackDrop:
		return "dropped"
	case NackRequeue:
		return "requeued"
	}
	return "unknown"
}

// Handle decodes one job and delivers it through s.
func Handle(ctx context.Context, body []byte, s Sender) Outcome {
	var job domain.Email
	if err := json.Unmarshal(body, &job); err != nil {
		slog.Warn("email job: bad payload", "err", err)
		return NackDrop
	}
	if job.To == "" || (job.Text == "" && job.HTML == "") {
		slog.Warn("email job: missing recipient or body")
		return NackDrop
	}
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := s.Send(c, job); err != nil {
		slog.Error("email job: send failed", "err", err)
		return NackRequeue
	}
	return Ack
}

// Consumer drains the email queue until its context is cancelled.
type Consumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	sender   Sender
	observer func(Outcome)
}

// NewConsumer dials url and sets a prefetch of 16 for fair dispatch.
// observer, if non-nil, is called with every settled outcome.
func NewConsumer(url, queue string, s Sender, observer func(Outcome)) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("qos: %w", err)
	}
	if err := declare(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Consumer{conn: conn, ch: ch, queue: queue, sender: s, observer: observer}, nil
}

// Run consumes until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			out := Handle(ctx, msg.Body, c.sender)
			switch out {
			case Ack:
				_ = msg.Ack(false)
			case NackDrop:
				_ = msg.Nack(false, false)
			case NackRequeue:
				_ = msg.Nack(false, true)
			}
			if c.observer != nil {
				c.observer(out)
			}
		}
	}
}

func (c *Consumer) Close() {
	_ = c.ch.Close()
	_ = c.conn.Close()
}
