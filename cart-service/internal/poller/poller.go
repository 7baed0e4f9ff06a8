package poller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/cart"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/contracts"
)

const (
	sourceCart = "cart"

	defaultRetryBase = 500 * time.Millisecond
	defaultRetryMax  = 30 * time.Second
)

// CartClearer removes the lines an order was placed from.
type CartClearer interface {
	RemoveOrdered(ctx context.Context, userID string, placedAt time.Time, items []contracts.OrderedItem) (*cart.Cart, error)
}

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Poller clears a user's cart once an order placed from that cart is published.
// Offsets are committed only after the cart has been updated.
type Poller struct {
	carts     CartClearer
	reader    MessageReader
	log       *zap.Logger
	retryBase time.Duration
	retryMax  time.Duration
}

func NewPoller(carts CartClearer, log *zap.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    contracts.OrdersTopic,
		GroupID:  "cart-service-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{
		carts:     carts,
		reader:    reader,
		log:       log,
		retryBase: defaultRetryBase,
		retryMax:  defaultRetryMax,
	}
}

func (p *Poller) Run(ctx context.Context) {
	delay := p.retryBase
	for {
		m, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			p.log.Error("error fetching message", zap.Error(err), zap.Duration("retry_in", delay))
			if !sleep(ctx, delay) {
				return
			}
			delay = backoff(delay, p.retryMax)
			continue
		}
		delay = p.retryBase

		if !p.process(ctx, m) {
			return
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warn("error closing reader", zap.Error(err))
	}
}

// process retries m until the cart is updated, then commits it. It reports false
// when ctx ends first, leaving m uncommitted.
func (p *Poller) process(ctx context.Context, m kafka.Message) bool {
	delay := p.retryBase
	for {
		err := p.handle(ctx, m)
		if err == nil {
			break
		}
		p.log.Error("failed to clear cart", zap.Error(err), zap.Duration("retry_in", delay))
		if !sleep(ctx, delay) {
			return false
		}
		delay = backoff(delay, p.retryMax)
	}

	if err := p.reader.CommitMessages(ctx, m); err != nil {
		if ctx.Err() != nil {
			return false
		}
		// redelivery is harmless: lines already removed no longer match
		p.log.Error("failed to commit message", zap.Int64("offset", m.Offset), zap.Error(err))
	}
	return true
}

// handle returns an error only when the cart could not be updated; events it does not
// act on are skipped.
func (p *Poller) handle(ctx context.Context, m kafka.Message) error {
	if eventType(m) != contracts.EventOrderPlaced {
		return nil
	}

	var event contracts.OrderPlaced
	if err := json.Unmarshal(m.Value, &event); err != nil {
		p.log.Error("error parsing message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if event.Source != sourceCart {
		return nil
	}
	if event.UserID == "" {
		p.log.Warn("order placed event without user_id", zap.String("order_id", event.OrderID))
		return nil
	}

	c, err := p.carts.RemoveOrdered(ctx, event.UserID, event.PlacedAt, event.Items)
	if err != nil {
		return err
	}
	p.log.Info("cart cleared after checkout",
		zap.String("user_id", event.UserID),
		zap.String("order_id", event.OrderID),
		zap.Int("lines_left", len(c.Lines)))
	return nil
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == contracts.EventHeader {
			return string(h.Value)
		}
	}
	return ""
}

func backoff(d, limit time.Duration) time.Duration {
	if d *= 2; d > limit {
		return limit
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
