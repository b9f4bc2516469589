// Package events publishes domain events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys.
const (
	UserCreated        = "user.created"
	UserUpdated        = "user.updated"
	UserDeleted        = "user.deleted"
	CampaignCreated    = "campaign.created"
	OfferCreated       = "offer.created"
	OfferStatusChanged = "offer.status_changed"
)

// Envelope wraps every published payload.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// Publisher sends an event under a routing key.
type Publisher interface {
	Publish(ctx context.Context, key string, data any) error
	Close() error
}

// AMQPPublisher publishes JSON envelopes to a durable topic exchange.
// A dropped connection is redialled on the next Publish.
type AMQPPublisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher dials url and declares exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, exchange: exchange}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect must be called with p.mu held, or before p is shared.
func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if err, ok := <-closed; ok {
			log.Printf("rabbitmq connection lost, will redial on next publish: %v", err)
		}
	}()
	p.conn, p.ch = conn, ch
	return nil
}

// channel returns a live channel, redialling when the previous one has closed.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p.ch, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, key string, data any) error {
	body, err := json.Marshal(Envelope{Type: key, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", key, err)
	}
	ch, err := p.channel()
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *AMQPPublisher) closeLocked() error {
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil && !p.conn.IsClosed() {
		err = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
	return err
}

// Nop discards events. It is used when AMQP_URL is unset.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }

// Emit publishes data and logs, rather than returns, any failure.
func Emit(ctx context.Context, p Publisher, key string, data any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, key, data); err != nil {
		log.Printf("publish %s: %v", key, err)
	}
}
