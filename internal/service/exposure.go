package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ExposureCache keeps the set of ad IDs each app package has already seen
// in Redis so random selection does not hit Postgres on every request.
// The cache is strictly an accelerator: every method degrades to a no-op
// or a miss on Redis failure, and callers fall back to the event store.
type ExposureCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewExposureCache creates an exposure cache. A nil client disables it.
func NewExposureCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ExposureCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExposureCache{client: client, ttl: ttl, logger: logger}
}

func exposureKey(packageName string) string {
	return "exposure:" + packageName
}

// Seen returns the cached set of seen ad IDs for the package. The second
// return value reports whether the cache had an answer; a miss or any
// Redis error returns (nil, false).
func (c *ExposureCache) Seen(ctx context.Context, packageName string) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	ids, err := c.client.SMembers(ctx, exposureKey(packageName)).Result()
	if err != nil {
		c.logger.Warn("exposure cache read failed",
			zap.String("package_name", packageName),
			zap.Error(err))
		return nil, false
	}
	if len(ids) == 0 {
		return nil, false
	}
	return ids, true
}

// Populate stores the full seen set for a package after a store lookup.
func (c *ExposureCache) Populate(ctx context.Context, packageName string, adIDs []string) {
	if c == nil || c.client == nil || len(adIDs) == 0 {
		return
	}
	key := exposureKey(packageName)
	members := make([]interface{}, len(adIDs))
	for i, id := range adIDs {
		members[i] = id
	}
	pipe := c.client.Pipeline()
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("exposure cache populate failed",
			zap.String("package_name", packageName),
			zap.Error(err))
	}
}

// addScript appends to the seen set only when the key already exists.
// Populate is the sole creator of exposure keys: it starts from the full
// store answer, while a key created here from a single ingest would read
// back as a complete set and hide every ad seen before it.
var addScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	redis.call("SADD", KEYS[1], ARGV[1])
	redis.call("EXPIRE", KEYS[1], ARGV[2])
	return 1
end
return 0
`)

// Add records a single newly-seen ad for a package. Called write-through
// from the ingest path; a cold key stays cold until the next Populate.
func (c *ExposureCache) Add(ctx context.Context, packageName, adID string) {
	if c == nil || c.client == nil {
		return
	}
	key := exposureKey(packageName)
	seconds := int(c.ttl / time.Second)
	if err := addScript.Run(ctx, c.client, []string{key}, adID, seconds).Err(); err != nil {
		c.logger.Warn("exposure cache add failed",
			zap.String("package_name", packageName),
			zap.String("ad_id", adID),
			zap.Error(err))
	}
}
