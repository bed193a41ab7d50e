// Package tracking streams order status changes to diners over redis
// pub/sub, consumed by the SSE endpoint.
package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/karibu-app/karibu-backend/pkg/enums"
	redisclient "github.com/karibu-app/karibu-backend/pkg/redis"
)

// Event is one order status change on the wire.
type Event struct {
	OrderID uuid.UUID         `json:"order_id"`
	Status  enums.OrderStatus `json:"status"`
	At      time.Time         `json:"at"`
}

type eventBus interface {
	Publish(ctx context.Context, channel string, payload any) error
	OrderEventsChannel(orderID string) string
}

// Publisher fans order status changes out to per-order channels.
type Publisher struct {
	bus eventBus
	now func() time.Time
}

// NewPublisher builds a publisher on top of the redis client.
func NewPublisher(bus eventBus) (*Publisher, error) {
	if bus == nil {
		return nil, fmt.Errorf("event bus required")
	}
	return &Publisher{bus: bus, now: time.Now}, nil
}

// Publish emits a status change for the order.
func (p *Publisher) Publish(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	payload, err := json.Marshal(Event{OrderID: orderID, Status: status, At: p.now().UTC()})
	if err != nil {
		return err
	}
	return p.bus.Publish(ctx, p.bus.OrderEventsChannel(orderID.String()), string(payload))
}

// Streamer attaches to one order's event channel.
type Streamer struct {
	client *redisclient.Client
}

// NewStreamer builds a streamer on top of the redis client.
func NewStreamer(client *redisclient.Client) (*Streamer, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &Streamer{client: client}, nil
}

// Stream subscribes to the order's channel and decodes events until the
// context is done. The returned cancel function must be called to release
// the subscription.
func (s *Streamer) Stream(ctx context.Context, orderID uuid.UUID) (<-chan Event, func() error, error) {
	sub, err := s.client.Subscribe(ctx, s.client.OrderEventsChannel(orderID.String()))
	if err != nil {
		return nil, nil, err
	}

	events := make(chan Event)
	go forward(ctx, sub.Channel(), events)
	return events, sub.Close, nil
}

func forward(ctx context.Context, in <-chan *redislib.Message, out chan<- Event) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
