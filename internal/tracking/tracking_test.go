package tracking

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/karibu-app/karibu-backend/pkg/enums"
)

type fakeBus struct {
	channel string
	payload string
}

func (f *fakeBus) Publish(ctx context.Context, channel string, payload any) error {
	f.channel = channel
	f.payload = payload.(string)
	return nil
}

func (f *fakeBus) OrderEventsChannel(orderID string) string {
	return "karibu:orders:" + orderID
}

func TestPublishEncodesEventOnOrderChannel(t *testing.T) {
	t.Parallel()

	bus := &fakeBus{}
	pub, err := NewPublisher(bus)
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { return at }

	orderID := uuid.New()
	if err := pub.Publish(context.Background(), orderID, enums.OrderStatusAccepted); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if bus.channel != "karibu:orders:"+orderID.String() {
		t.Fatalf("unexpected channel %q", bus.channel)
	}

	var event Event
	if err := json.Unmarshal([]byte(bus.payload), &event); err != nil {
		t.Fatalf("payload not json: %v", err)
	}
	if event.OrderID != orderID || event.Status != enums.OrderStatusAccepted || !event.At.Equal(at) {
		t.Fatalf("unexpected event: %+v", event)
	}
}
