package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront-cart/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const EventCartUpdated = "cart_updated"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CartUpdated is the payload published for every committed cart.
type CartUpdated struct {
	SessionID string      `json:"session_id"`
	Items     domain.Cart `json:"items"`
	ItemCount int         `json:"item_count"`
	Total     float64     `json:"total"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Publisher forwards committed carts to Kafka. Handle only enqueues, so the
// committing goroutine never waits on the broker; Run does the writing.
type Publisher struct {
	sessionID    string
	timeout      time.Duration
	drainTimeout time.Duration
	queue        chan CartUpdated
	writer       messageWriter
	log          *logrus.Logger
}

func NewPublisher(sessionID, topic string, log *logrus.Logger, brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newPublisher(sessionID, w, log)
}

func newPublisher(sessionID string, w messageWriter, log *logrus.Logger) *Publisher {
	return &Publisher{
		sessionID:    sessionID,
		timeout:      5 * time.Second,
		drainTimeout: 3 * time.Second,
		queue:        make(chan CartUpdated, 100),
		writer:       w,
		log:          log,
	}
}

// Handle is meant to be passed to cart.Store.Subscribe.
func (p *Publisher) Handle(cart domain.Cart) {
	event := CartUpdated{
		SessionID: p.sessionID,
		Items:     cart,
		ItemCount: cart.ItemCount(),
		Total:     cart.Total(),
		UpdatedAt: time.Now().UTC(),
	}
	select {
	case p.queue <- event:
	default:
		p.log.WithField("session_id", p.sessionID).Warn("cart event queue full, dropping event")
	}
}

// Run writes queued events until ctx is done, then flushes what is still
// queued for at most drainTimeout.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case event := <-p.queue:
			p.write(ctx, event)
		case <-ctx.Done():
			p.drain(ctx)
			return
		}
	}
}

func (p *Publisher) drain(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.drainTimeout)
	defer cancel()

	for {
		select {
		case event := <-p.queue:
			p.write(drainCtx, event)
		default:
			return
		}
		if drainCtx.Err() != nil {
			p.log.WithFields(logrus.Fields{
				"session_id": p.sessionID,
				"dropped":    len(p.queue),
			}).Warn("drain timed out, dropping cart events")
			return
		}
	}
}

// write outlives cancellation of ctx; each write is bounded by p.timeout.
func (p *Publisher) write(ctx context.Context, event CartUpdated) {
	if err := p.publish(context.WithoutCancel(ctx), event); err != nil {
		p.log.WithError(err).WithField("session_id", p.sessionID).Error("failed to publish cart event")
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) publish(ctx context.Context, event CartUpdated) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal cart event failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(p.sessionID), // keeps one session's events ordered
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventCartUpdated)},
		},
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.writer.WriteMessages(writeCtx, msg)
}
