// Package ratelimit throttles API clients with a fixed-window limiter shared
// across instances through Redis.
package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/backend-quote/internal/common"
)

// KeyFunc derives the bucket key of a request.
type KeyFunc func(*http.Request) string

// ByClientIP buckets requests by client address.
func ByClientIP(r *http.Request) string { return common.ClientIP(r) }

// NewRedisStore returns a limiter store backed by Redis.
func NewRedisStore(client *redis.Client) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: "quote:ratelimit"})
}

// PerMinute builds a limiter allowing rpm requests per minute per key.
func PerMinute(store limiter.Store, rpm int) *limiter.Limiter {
	return limiter.New(store, limiter.Rate{Period: time.Minute, Limit: int64(rpm)})
}

// Handler enforces rate limits before delegating to the next handler.
type Handler struct {
	Limiter *limiter.Limiter
	Key     KeyFunc
	OnError func(error)
}

// Middleware implements the http.Handler middleware interface. Store errors
// let the request through.
func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Limiter == nil || h.Limiter.Rate.Limit <= 0 {
		return next
	}
	key := h.Key
	if key == nil {
		key = ByClientIP
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lctx, err := h.Limiter.Get(r.Context(), key(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			retryAfter := lctx.Reset - time.Now().Unix()
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			common.JSONError(w, http.StatusTooManyRequests, common.CodeTooMany, "rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
