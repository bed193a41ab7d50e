package redis

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/karibu-app/karibu-backend/pkg/config"
)

type fakeCmdable struct {
	values map[string]string
}

func newFakeCmdable() *fakeCmdable {
	return &fakeCmdable{values: map[string]string{}}
}

func (f *fakeCmdable) Ping(ctx context.Context) *redislib.StatusCmd {
	cmd := redislib.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (f *fakeCmdable) Set(ctx context.Context, key string, value any, ttl time.Duration) *redislib.StatusCmd {
	f.values[key] = value.(string)
	cmd := redislib.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeCmdable) Get(ctx context.Context, key string) *redislib.StringCmd {
	cmd := redislib.NewStringCmd(ctx)
	if val, ok := f.values[key]; ok {
		cmd.SetVal(val)
	} else {
		cmd.SetErr(redislib.Nil)
	}
	return cmd
}

func (f *fakeCmdable) Del(ctx context.Context, keys ...string) *redislib.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			removed++
		}
	}
	cmd := redislib.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

func (f *fakeCmdable) Publish(ctx context.Context, channel string, payload any) *redislib.IntCmd {
	cmd := redislib.NewIntCmd(ctx)
	cmd.SetVal(1)
	return cmd
}

func TestKeyBuilders(t *testing.T) {
	t.Parallel()

	c := &Client{}
	if got := c.CartKey("user-1"); got != "karibu:cart:user-1" {
		t.Fatalf("unexpected cart key %q", got)
	}
	if got := c.AccessSessionKey("abc"); got != "karibu:session:access:abc" {
		t.Fatalf("unexpected session key %q", got)
	}
	if got := c.OrderEventsChannel("o-1"); got != "karibu:orders:o-1" {
		t.Fatalf("unexpected channel %q", got)
	}
}

func TestSetGetDelRoundTrip(t *testing.T) {
	t.Parallel()

	c := &Client{store: newFakeCmdable()}
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	val, err := c.Get(ctx, "k")
	if err != nil || val != "v" {
		t.Fatalf("get returned %q, %v", val, err)
	}
	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := c.Get(ctx, "k"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	t.Parallel()

	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when no url or address is configured")
	}

	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", PoolSize: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.PoolSize != 5 {
		t.Fatalf("options not applied: %+v", opts)
	}
}
