package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key policies select which dimensions of a login attempt are throttled
const (
	KeyPolicyAccount = "account"
	KeyPolicyClient  = "client"
	KeyPolicyBoth    = "both"
)

const (
	accountKeyKind = "acct"
	clientKeyKind  = "ip"
)

// CounterStore keeps expiring failure counters
type CounterStore interface {
	// Increment adds one to key and returns the new count. A new counter expires after window.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	// Expire resets the time to live of an existing counter
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Peek returns the count and remaining time to live. A missing key yields zero values.
	Peek(ctx context.Context, key string) (int64, time.Duration, error)
	Reset(ctx context.Context, key string) error
}

// RateLimitPolicy configures the login limiter
type RateLimitPolicy struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
	KeyPolicy   string
	KeyPrefix   string
}

// RateLimitDecision is the outcome of a Check
type RateLimitDecision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RateLimiter counts failed logins per key and blocks keys that reach the threshold.
// Store failures never block a login. A nil *RateLimiter allows everything.
type RateLimiter struct {
	store  CounterStore
	policy RateLimitPolicy
	logger *zap.Logger
}

// NewRateLimiter creates a limiter. Zero policy fields fall back to the package defaults.
func NewRateLimiter(store CounterStore, policy RateLimitPolicy, logger *zap.Logger) *RateLimiter {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 5
	}
	if policy.Window <= 0 {
		policy.Window = 15 * time.Minute
	}
	if policy.Lockout <= 0 {
		policy.Lockout = policy.Window
	}
	switch policy.KeyPolicy {
	case KeyPolicyAccount, KeyPolicyClient, KeyPolicyBoth:
	default:
		policy.KeyPolicy = KeyPolicyBoth
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{store: store, policy: policy, logger: logger}
}

// Keys returns the counter keys a login attempt is tracked under
func (l *RateLimiter) Keys(email, clientIP string) []string {
	if l == nil {
		return nil
	}

	var keys []string
	if l.policy.KeyPolicy != KeyPolicyClient && email != "" {
		keys = append(keys, l.key(accountKeyKind, strings.ToLower(strings.TrimSpace(email))))
	}
	if l.policy.KeyPolicy != KeyPolicyAccount && clientIP != "" {
		keys = append(keys, l.key(clientKeyKind, clientIP))
	}
	return keys
}

func (l *RateLimiter) key(kind, value string) string {
	return l.policy.KeyPrefix + "login:" + kind + ":" + value
}

// Check reports whether key may attempt a login. It only fails when ctx is done.
func (l *RateLimiter) Check(ctx context.Context, key string) (RateLimitDecision, error) {
	if l == nil {
		return RateLimitDecision{Allowed: true}, nil
	}
	if err := ctx.Err(); err != nil {
		return RateLimitDecision{}, err
	}

	count, ttl, err := l.store.Peek(ctx, key)
	if err != nil {
		l.storeFailure("peek", key, err)
		return RateLimitDecision{Allowed: true}, nil
	}

	if count < int64(l.policy.MaxAttempts) {
		return RateLimitDecision{Allowed: true}, nil
	}

	if ttl <= 0 {
		ttl = l.policy.Lockout
	}
	loginRateLimitBlocks.WithLabelValues(keyKind(key)).Inc()
	return RateLimitDecision{Allowed: false, RetryAfter: ttl}, nil
}

// CheckAll checks every key and returns the most restrictive decision
func (l *RateLimiter) CheckAll(ctx context.Context, keys []string) (RateLimitDecision, error) {
	decision := RateLimitDecision{Allowed: true}
	for _, key := range keys {
		d, err := l.Check(ctx, key)
		if err != nil {
			return RateLimitDecision{}, err
		}
		if !d.Allowed && (decision.Allowed || d.RetryAfter > decision.RetryAfter) {
			decision = d
		}
	}
	return decision, nil
}

// RecordFailure counts a failed attempt. Reaching the threshold extends the counter to the lockout duration.
func (l *RateLimiter) RecordFailure(ctx context.Context, keys ...string) {
	if l == nil {
		return
	}
	for _, key := range keys {
		count, err := l.store.Increment(ctx, key, l.policy.Window)
		if err != nil {
			l.storeFailure("increment", key, err)
			continue
		}
		if count >= int64(l.policy.MaxAttempts) {
			if err := l.store.Expire(ctx, key, l.policy.Lockout); err != nil {
				l.storeFailure("expire", key, err)
			}
		}
	}
}

// RecordSuccess clears the counters of keys
func (l *RateLimiter) RecordSuccess(ctx context.Context, keys ...string) {
	if l == nil {
		return
	}
	for _, key := range keys {
		if err := l.store.Reset(ctx, key); err != nil {
			l.storeFailure("reset", key, err)
		}
	}
}

func (l *RateLimiter) storeFailure(op, key string, err error) {
	rateLimitStoreErrors.Inc()
	l.logger.Warn("rate limit store unavailable, allowing attempt",
		zap.String("op", op),
		zap.String("key_kind", keyKind(key)),
		zap.Error(err),
	)
}

func keyKind(key string) string {
	if strings.Contains(key, "login:"+clientKeyKind+":") {
		return "client"
	}
	return "account"
}

// MemoryCounterStore is an in-process CounterStore. Suitable for a single instance.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
	now      func() time.Time
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryCounterStore creates a memory store. A nil clock uses time.Now.
func NewMemoryCounterStore(clock func() time.Time) *MemoryCounterStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryCounterStore{counters: make(map[string]*memoryCounter), now: clock}
}

// live returns the counter for key, dropping it when expired. Callers hold mu.
func (s *MemoryCounterStore) live(key string, now time.Time) *memoryCounter {
	c, ok := s.counters[key]
	if !ok {
		return nil
	}
	if !now.Before(c.expiresAt) {
		delete(s.counters, key)
		return nil
	}
	return c
}

func (s *MemoryCounterStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := s.live(key, now)
	if c == nil {
		c = &memoryCounter{expiresAt: now.Add(window)}
		s.counters[key] = c
	}
	c.count++
	return c.count, nil
}

func (s *MemoryCounterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if c := s.live(key, now); c != nil {
		c.expiresAt = now.Add(ttl)
	}
	return nil
}

func (s *MemoryCounterStore) Peek(ctx context.Context, key string) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := s.live(key, now)
	if c == nil {
		return 0, 0, nil
	}
	return c.count, c.expiresAt.Sub(now), nil
}

func (s *MemoryCounterStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.counters, key)
	return nil
}

// Sweep removes expired counters
func (s *MemoryCounterStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, c := range s.counters {
		if !now.Before(c.expiresAt) {
			delete(s.counters, key)
			removed++
		}
	}
	return removed
}

// RedisCounterStore shares counters between instances through redis
type RedisCounterStore struct {
	client redis.UniversalClient
}

func NewRedisCounterStore(client redis.UniversalClient) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}

	if count == 1 {
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("pexpire %s: %w", key, err)
		}
	}

	return count, nil
}

func (s *RedisCounterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.PExpire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("pexpire %s: %w", key, err)
	}
	return nil
}

func (s *RedisCounterStore) Peek(ctx context.Context, key string) (int64, time.Duration, error) {
	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, fmt.Errorf("peek %s: %w", key, err)
	}

	count, err := getCmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("peek %s: %w", key, err)
	}

	ttl := ttlCmd.Val()
	if ttl < 0 {
		ttl = 0
	}
	return count, ttl, nil
}

func (s *RedisCounterStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}
