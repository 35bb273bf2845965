package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProofLedger remembers consumed payment signatures so a single proof admits
// at most one request. Consume returns false when the signature was already
// consumed within the retention window.
type ProofLedger interface {
	Consume(ctx context.Context, signature string) (bool, error)
}

// MemoryLedger is an in-process ProofLedger with TTL expiry. Suitable for
// single-instance deployments; replay state is lost on restart.
type MemoryLedger struct {
	ttl  time.Duration
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewMemoryLedger creates a ledger that retains signatures for ttl.
func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	return &MemoryLedger{
		ttl:  ttl,
		seen: make(map[string]time.Time),
	}
}

// Consume records the signature, reporting whether it was fresh. Expired
// entries are dropped opportunistically on each call.
func (l *MemoryLedger) Consume(ctx context.Context, signature string) (bool, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for sig, at := range l.seen {
		if now.Sub(at) > l.ttl {
			delete(l.seen, sig)
		}
	}

	if _, ok := l.seen[signature]; ok {
		return false, nil
	}
	l.seen[signature] = now
	return true, nil
}

// RedisLedger is a ProofLedger backed by Redis, for deployments with more
// than one instance. Entries expire server-side after the configured TTL.
type RedisLedger struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisLedger connects to Redis using a URL of the form
// redis://[:password@]host:port[/db].
func NewRedisLedger(redisURL string, ttl time.Duration) (*RedisLedger, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisLedger{
		rdb: redis.NewClient(opt),
		ttl: ttl,
	}, nil
}

// Ping checks connectivity, for startup validation.
func (l *RedisLedger) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Consume atomically claims the signature with SET NX.
func (l *RedisLedger) Consume(ctx context.Context, signature string) (bool, error) {
	fresh, err := l.rdb.SetNX(ctx, "payment:sig:"+signature, 1, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("proof ledger: %w", err)
	}
	return fresh, nil
}

// Close releases the underlying Redis connection.
func (l *RedisLedger) Close() error {
	return l.rdb.Close()
}
