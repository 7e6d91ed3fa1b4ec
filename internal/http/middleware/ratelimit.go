package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"codearena/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter фиксированное окно на ключ. С redis счётчик общий для всех
// инстансов, без него считает локально.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration

	mu    sync.Mutex
	local map[string]*localWindow
	now   func() time.Time
}

type localWindow struct {
	start time.Time
	count int
}

// NewRedisClient nil если адрес не задан
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		local:  make(map[string]*localWindow),
		now:    time.Now,
	}
}

// Allow true если запрос укладывается в лимит
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	if l.rdb == nil {
		return l.allowLocal(key), nil
	}

	// окно создаётся вместе с TTL в одной транзакции, ключ без срока не остаётся
	redisKey := "ratelimit:" + key
	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, redisKey, 0, l.window)
		incr = pipe.Incr(ctx, redisKey)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis window: %w", err)
	}
	return incr.Val() <= int64(l.limit), nil
}

func (l *RateLimiter) allowLocal(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.local[key]
	if !ok || now.Sub(w.start) >= l.window {
		// заодно чистим протухшие окна
		for k, old := range l.local {
			if now.Sub(old.start) >= l.window {
				delete(l.local, k)
			}
		}
		w = &localWindow{start: now}
		l.local[key] = w
	}
	w.count++
	return w.count <= l.limit
}

// Middleware лимит по IP. Ошибка redis не блокирует запросы.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
