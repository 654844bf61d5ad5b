package fixingstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/meenmo/onavg/market"
	"github.com/meenmo/onavg/ratesource"
	"github.com/meenmo/onavg/utils"
)

// Loader loads the published fixings of an index for dates in [from, to).
type Loader interface {
	Load(ctx context.Context, index market.OvernightIndex, from, to time.Time) (*ratesource.FixingSeries, error)
}

var _ Loader = (*Store)(nil)

// CachedLoader is a read-through Redis cache in front of a Loader. Redis failures are
// logged and the request goes to the underlying loader.
type CachedLoader struct {
	client *redis.Client
	next   Loader
	ttl    time.Duration
	log    *zap.Logger
}

var _ Loader = (*CachedLoader)(nil)

// NewRedisClient connects to addr and checks the connection.
func NewRedisClient(ctx context.Context, addr string, timeout time.Duration) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("fixingstore: redis connection failed: %w", err)
	}
	return rdb, nil
}

// NewCachedLoader wraps next. A non-positive ttl stores entries without expiry.
func NewCachedLoader(client *redis.Client, next Loader, ttl time.Duration, log *zap.Logger) *CachedLoader {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl < 0 {
		ttl = 0
	}
	return &CachedLoader{client: client, next: next, ttl: ttl, log: log.Named("fixingcache")}
}

// CacheKey is the Redis key of a fixing range.
func CacheKey(index market.OvernightIndex, from, to time.Time) string {
	return fmt.Sprintf("onavg:fixings:%s:%s:%s", index.Name, from.Format(utils.DateLayout), to.Format(utils.DateLayout))
}

// Load returns the cached range, or loads it. Only ranges holding a fixing for every
// index fixing date are stored, so a range still being published is read from the
// underlying loader until it is complete.
func (c *CachedLoader) Load(ctx context.Context, index market.OvernightIndex, from, to time.Time) (*ratesource.FixingSeries, error) {
	key := CacheKey(index, from, to)

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		series, decodeErr := decodeSeries(val)
		if decodeErr == nil {
			c.log.Debug("cache hit", zap.String("key", key), zap.Int("fixings", series.Len()))
			return series, nil
		}
		c.log.Warn("discarding cached fixings", zap.String("key", key), zap.Error(decodeErr))
	case errors.Is(err, redis.Nil):
		c.log.Debug("cache miss", zap.String("key", key))
	default:
		c.log.Warn("redis get failed", zap.String("key", key), zap.Error(err))
	}

	series, err := c.next.Load(ctx, index, from, to)
	if err != nil {
		return nil, err
	}
	if missing := firstMissing(index, from, to, series); !missing.IsZero() {
		c.log.Debug("range incomplete, not cached", zap.String("key", key),
			zap.String("first_missing", missing.Format(utils.DateLayout)))
		return series, nil
	}
	payload, err := encodeSeries(series)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
	return series, nil
}

// firstMissing returns the first fixing date in [from, to) without a fixing, or the
// zero time when the range is complete.
func firstMissing(index market.OvernightIndex, from, to time.Time, series *ratesource.FixingSeries) time.Time {
	for _, f := range index.FixingDates(from, to) {
		if _, ok := series.RateOn(f); !ok {
			return f
		}
	}
	return time.Time{}
}

// encodeSeries stores rates keyed by date; encoding/json sorts the keys.
func encodeSeries(s *ratesource.FixingSeries) (string, error) {
	rates := make(map[string]float64, s.Len())
	for _, d := range s.Dates() {
		r, _ := s.RateOn(d)
		rates[d.Format(utils.DateLayout)] = r
	}
	data, err := json.Marshal(rates)
	if err != nil {
		return "", fmt.Errorf("fixingstore: encode fixings: %w", err)
	}
	return string(data), nil
}

func decodeSeries(val string) (*ratesource.FixingSeries, error) {
	var rates map[string]float64
	if err := json.Unmarshal([]byte(val), &rates); err != nil {
		return nil, fmt.Errorf("fixingstore: decode fixings: %w", err)
	}
	return ratesource.NewFixingSeries(rates), nil
}
