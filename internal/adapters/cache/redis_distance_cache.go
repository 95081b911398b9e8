package cache

import (
	"context"
	"errors"
	"fmt"
	"shipment-tracking-service/internal/domain"
	"shipment-tracking-service/internal/platform/obs"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "distance:"

// RedisDistanceCache keeps provider results in Redis with a TTL so navigable
// distances are shared across service instances.
type RedisDistanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDistanceCache(client *redis.Client, ttl time.Duration) *RedisDistanceCache {
	return &RedisDistanceCache{client: client, ttl: ttl}
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("open redis %q: ping: %w", addr, err)
	}
	return rdb, nil
}

func (r *RedisDistanceCache) GetKm(ctx context.Context, from, to domain.GeoPoint) (_ float64, _ bool, err error) {
	defer obs.Time(ctx, "distance.cache.redis.GetKm")(&err)

	if r.client == nil {
		return 0, false, errors.New("distance cache: redis client is nil")
	}

	km, err := r.client.Get(ctx, redisKeyPrefix+PairKey(from, to)).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get distance cache: redis GET: %w", err)
	}
	return km, true, nil
}

func (r *RedisDistanceCache) PutKm(ctx context.Context, from, to domain.GeoPoint, km float64) error {
	if r.client == nil {
		return errors.New("distance cache: redis client is nil")
	}
	if err := r.client.Set(ctx, redisKeyPrefix+PairKey(from, to), km, r.ttl).Err(); err != nil {
		return fmt.Errorf("insert distance cache: redis SET: %w", err)
	}
	return nil
}
