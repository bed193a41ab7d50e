package cart

import (
	"context"
	"time"

	"github.com/karibu-app/karibu-backend/pkg/config"
	"github.com/karibu-app/karibu-backend/pkg/metrics"
	redisclient "github.com/karibu-app/karibu-backend/pkg/redis"
)

// StoreFactory yields the persistence adapter for one cart owner.
type StoreFactory func(owner string) Store

// Manager hydrates a per-owner engine on demand. The owner is the
// authenticated user id or the anonymous cart session id; each request gets
// a fresh engine backed by the shared store.
type Manager struct {
	factory StoreFactory
	metrics *metrics.OrderMetrics
}

// NewManager builds a manager around a store factory.
func NewManager(factory StoreFactory, m *metrics.OrderMetrics) *Manager {
	return &Manager{factory: factory, metrics: m}
}

// NewRedisManager wires the manager to Redis-backed stores using the
// configured snapshot TTL.
func NewRedisManager(client *redisclient.Client, cfg config.CartConfig, m *metrics.OrderMetrics) *Manager {
	ttl := cfg.SnapshotTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return NewManager(func(owner string) Store {
		return NewRedisStore(client, owner, ttl)
	}, m)
}

// Engine loads the owner's cart. Snapshot publications are observed to feed
// the cart mutation counter.
func (m *Manager) Engine(ctx context.Context, owner string) *Engine {
	engine := NewEngine(ctx, m.factory(owner))
	if m.metrics != nil {
		engine.Subscribe(func(State) {
			m.metrics.IncCartMutation("commit")
		})
	}
	return engine
}
