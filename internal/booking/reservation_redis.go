package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisReservationStore backs the reservation table with Redis, using native
// key TTLs for expiry. It lets multiple processes share one hold table; the
// durable store's uniqueness constraint still backstops correctness.
type RedisReservationStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisReservationStore creates a Redis-backed reservation table.
func NewRedisReservationStore(client redis.UniversalClient, ttl time.Duration) *RedisReservationStore {
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}
	return &RedisReservationStore{client: client, ttl: ttl}
}

var _ ReservationStore = (*RedisReservationStore)(nil)

// refreshHoldScript extends a hold's TTL only while the caller still owns it,
// so a refresh can never clobber a hold another user won after an expiry.
var refreshHoldScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

func reservationRedisKey(key ReservationKey) string {
	return fmt.Sprintf("resv:%s:%s:%s", key.Date, key.Department, key.Slot)
}

func (r *RedisReservationStore) TryReserve(ctx context.Context, key ReservationKey, holder string) (bool, error) {
	k := reservationRedisKey(key)
	ok, err := r.client.SetNX(ctx, k, holder, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("booking: redis reserve: %w", err)
	}
	if ok {
		return true, nil
	}
	current, err := r.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Hold expired between SETNX and GET; retry once.
		ok, err = r.client.SetNX(ctx, k, holder, r.ttl).Result()
		if err != nil {
			return false, fmt.Errorf("booking: redis reserve retry: %w", err)
		}
		return ok, nil
	}
	if err != nil {
		return false, fmt.Errorf("booking: redis reserve lookup: %w", err)
	}
	if current != holder {
		return false, nil
	}
	// Idempotent re-reservation by the same holder refreshes the TTL. The
	// refresh is guarded so an expiry after the GET cannot overwrite a hold a
	// concurrent SETNX just won.
	refreshed, err := refreshHoldScript.Run(ctx, r.client, []string{k}, holder, r.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("booking: redis reserve refresh: %w", err)
	}
	if refreshed == 1 {
		return true, nil
	}
	// The hold changed hands or expired under us; one more SETNX decides.
	ok, err = r.client.SetNX(ctx, k, holder, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("booking: redis reserve retry: %w", err)
	}
	return ok, nil
}

func (r *RedisReservationStore) Release(ctx context.Context, key ReservationKey) error {
	if err := r.client.Del(ctx, reservationRedisKey(key)).Err(); err != nil {
		return fmt.Errorf("booking: redis release: %w", err)
	}
	return nil
}

func (r *RedisReservationStore) IsHeldByOther(ctx context.Context, key ReservationKey, holder string) (bool, error) {
	current, err := r.client.Get(ctx, reservationRedisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("booking: redis hold lookup: %w", err)
	}
	return current != holder, nil
}

func (r *RedisReservationStore) HeldSlots(ctx context.Context, date string, department Department) ([]string, error) {
	prefix := fmt.Sprintf("resv:%s:%s:", date, department)
	var (
		slots  []string
		cursor uint64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("booking: redis held slots: %w", err)
		}
		for _, k := range keys {
			slots = append(slots, strings.TrimPrefix(k, prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return slots, nil
}

// Sweep is a no-op: Redis expires holds natively.
func (r *RedisReservationStore) Sweep(context.Context, time.Time) int {
	return 0
}
