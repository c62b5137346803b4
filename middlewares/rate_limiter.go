package middlewares

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/cafe-app/utils"
	"golang.org/x/time/rate"
)

var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

local elapsed = math.max(0, now_ms - last_refill)
local intervals = math.floor(elapsed / interval_ms)
if intervals > 0 then
	tokens = math.min(capacity, tokens + intervals)
	last_refill = last_refill + (intervals * interval_ms)
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)
return { allowed, tokens, retry_after_ms }
`)

// RateLimiter is a per client IP token bucket. The bucket lives in Redis
// when a client is configured so every instance shares it; otherwise, or
// when Redis errors, an in-process limiter per IP is used.
type RateLimiter struct {
	prefix   string
	capacity int
	interval time.Duration
	rdb      *redis.Client

	mu        sync.Mutex
	local     map[string]*localBucket
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per IP per minute, with bursts up
// to perMinute. rdb may be nil.
func NewRateLimiter(prefix string, perMinute int, rdb *redis.Client) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimiter{
		prefix:   prefix,
		capacity: perMinute,
		interval: time.Minute / time.Duration(perMinute),
		rdb:      rdb,
		local:    make(map[string]*localBucket),
		// a bucket idle this long has refilled completely
		idle: 2 * time.Minute,
		now:  time.Now,
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		allowed, remaining, retry, err := rl.takeShared(c, ip)
		if err != nil {
			allowed, remaining, retry = rl.takeLocal(ip)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.capacity))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if !allowed {
			secs := int(math.Ceil(retry.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, utils.ErrorResponse{
				Error:  "too many requests, retry later",
				Reason: "rate_limited",
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) takeShared(c *gin.Context, ip string) (bool, int64, time.Duration, error) {
	if rl.rdb == nil {
		return false, 0, 0, redis.Nil
	}
	key := fmt.Sprintf("%s:ip:%s", rl.prefix, ip)
	ttl := int64(time.Minute/time.Second) * 2
	vals, err := tokenBucketScript.Run(c.Request.Context(), rl.rdb, []string{key},
		time.Now().UnixMilli(), rl.capacity, rl.interval.Milliseconds(), ttl).Result()
	if err != nil {
		utils.InfoLogger.WithField("key", key).Warnf("rate limit falling back to local bucket: %v", err)
		return false, 0, 0, err
	}
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		return false, 0, 0, fmt.Errorf("unexpected rate limit script result %#v", vals)
	}
	allowed := asInt64(arr[0]) == 1
	return allowed, asInt64(arr[1]), time.Duration(asInt64(arr[2])) * time.Millisecond, nil
}

func (rl *RateLimiter) takeLocal(ip string) (bool, int64, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	rl.sweepLocked(now)
	b, ok := rl.local[ip]
	if !ok {
		b = &localBucket{limiter: rate.NewLimiter(rate.Every(rl.interval), rl.capacity)}
		rl.local[ip] = b
	}
	b.lastSeen = now
	limiter := b.limiter
	rl.mu.Unlock()

	if limiter.AllowN(now, 1) {
		return true, int64(limiter.TokensAt(now)), 0
	}
	res := limiter.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	res.CancelAt(now)
	return false, 0, delay
}

// sweepLocked forgets buckets not used for rl.idle, at most once per rl.idle.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.idle {
		return
	}
	for ip, b := range rl.local {
		if now.Sub(b.lastSeen) >= rl.idle {
			delete(rl.local, ip)
		}
	}
	rl.lastSweep = now
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
