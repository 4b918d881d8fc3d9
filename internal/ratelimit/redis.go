package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sungwon/recipient-check/internal/metrics"
)

const (
	defaultRedisKey = "ratelimit:validation"
	// minPoll bounds how often a waiter re-checks the slot.
	minPoll = 10 * time.Millisecond
)

// Redis enforces the interval across every process sharing one Redis
// instance. A slot is taken with SET NX PX; holders of a later slot wait out
// the remaining TTL of the current one. When Redis cannot be reached the
// interval is still enforced within this process.
type Redis struct {
	client   *redis.Client
	clock    Clock
	key      string
	interval time.Duration
	local    *Fixed
	log      zerolog.Logger
}

// NewRedis creates a Redis-backed throttle. An empty key uses
// "ratelimit:validation".
func NewRedis(client *redis.Client, key string, interval time.Duration, clock Clock, log zerolog.Logger) *Redis {
	if clock == nil {
		clock = SystemClock{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if key == "" {
		key = defaultRedisKey
	}
	return &Redis{
		client:   client,
		clock:    clock,
		key:      key,
		interval: interval,
		local:    NewFixed(interval, clock),
		log:      log,
	}
}

// Wait blocks until this process holds the next slot. Redis errors fall
// back to the in-process throttle; only a done ctx is returned as an error.
func (r *Redis) Wait(ctx context.Context) error {
	start := r.clock.Now()
	defer func() {
		metrics.ThrottleWaitDuration.Observe(r.clock.Now().Sub(start).Seconds())
	}()

	for {
		ok, err := r.client.SetNX(ctx, r.key, start.UnixMilli(), r.interval).Result()
		if err != nil {
			return r.fallback(ctx, fmt.Errorf("acquire rate limit slot: %w", err))
		}
		if ok {
			r.local.Mark(r.clock.Now())
			return nil
		}

		ttl, err := r.client.PTTL(ctx, r.key).Result()
		if err != nil {
			return r.fallback(ctx, fmt.Errorf("read rate limit slot ttl: %w", err))
		}
		// go-redis reports a missing key as -2 and a key without expiry as -1.
		switch {
		case ttl == -2:
			continue
		case ttl < 0:
			ttl = r.interval
		case ttl < minPoll:
			ttl = minPoll
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(ttl):
		}
	}
}

func (r *Redis) fallback(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	metrics.ThrottleFallbackTotal.Inc()
	r.log.Warn().Err(err).Str("key", r.key).Msg("redis rate limit unavailable, spacing calls in process")
	return r.local.Wait(ctx)
}
