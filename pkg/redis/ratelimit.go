package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindow trims expired entries, counts the window, and records
// the request in one atomic round trip. Returns {allowed, remaining}.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, now)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	end
	return {0, 0}
`)

// waitInterval is how often Wait re-checks a saturated window
const waitInterval = 100 * time.Millisecond

// RateLimiter enforces sliding-window limits shared across processes.
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
}

// RateLimitConfig names one limited surface and its budget
type RateLimitConfig struct {
	Key    string        // 대상 식별자 ("broker", "webhook")
	Limit  int           // 윈도우 내 허용 횟수
	Window time.Duration
}

// NewRateLimiter creates a rate limiter on top of an optional client
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{client: client, prefix: prefix}
}

// Allow reports whether one more request fits in the window and how
// much budget remains. Redis가 꺼져 있으면 항상 통과.
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	now := time.Now().UnixMilli()

	result, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		now,
		now-cfg.Window.Milliseconds(),
		cfg.Limit,
		cfg.Window.Milliseconds(),
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", cfg.Key, err)
	}

	allowed := result[0].(int64) == 1
	remaining := int(result[1].(int64))

	return allowed, remaining, nil
}

// Wait blocks until a slot opens or the context is cancelled
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitInterval):
		}
	}
}

// Budgets for the external surfaces the engine calls out to
var (
	// 브로커 주문 API: 초당 2회 제한 (보수적)
	BrokerRateLimit = RateLimitConfig{
		Key:    "broker",
		Limit:  2,
		Window: time.Second,
	}

	// 알림 webhook: 분당 30회 제한
	WebhookRateLimit = RateLimitConfig{
		Key:    "webhook",
		Limit:  30,
		Window: time.Minute,
	}
)
