package redis

import (
	"context"
	"testing"

	"github.com/wonny/kairos/pkg/config"
)

// disabledClient is what every process gets when REDIS_ENABLED=false.
func disabledClient(t *testing.T) *Client {
	t.Helper()

	client, err := New(&config.Config{
		Redis: config.RedisConfig{Enabled: false},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNew_Disabled(t *testing.T) {
	client := disabledClient(t)

	if client.Enabled() {
		t.Error("Enabled() = true, want false")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestCache_DisabledIsAlwaysMiss(t *testing.T) {
	cache := NewCache(disabledClient(t), "kairos")
	ctx := context.Background()

	summary := map[string]int{"scanned": 12}
	if err := cache.Set(ctx, KeyLastCycle, summary, TTLLastCycle); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got map[string]int
	found, err := cache.Get(ctx, KeyLastCycle, &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found = true, want miss with Redis disabled")
	}
}

func TestRateLimiter_DisabledAllowsEverything(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "kairos")
	ctx := context.Background()

	// 브로커 예산(초당 2회)을 훨씬 넘겨도 전부 통과해야 한다
	for i := 0; i < 10; i++ {
		allowed, remaining, err := limiter.Allow(ctx, BrokerRateLimit)
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !allowed {
			t.Fatalf("Allow() = false on request %d, want true", i+1)
		}
		if remaining != BrokerRateLimit.Limit {
			t.Errorf("remaining = %d, want full budget %d", remaining, BrokerRateLimit.Limit)
		}
	}
}

func TestRateLimiter_DisabledWaitReturnsImmediately(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "kairos")

	if err := limiter.Wait(context.Background(), WebhookRateLimit); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}
