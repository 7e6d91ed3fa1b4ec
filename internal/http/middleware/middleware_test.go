package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func get(r http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLocalRateLimit(t *testing.T) {
	l := NewRateLimiter(nil, 2, time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	r := newEngine(l.Middleware())

	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusOK, get(r, "").Code)
	w := get(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// новое окно
	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, get(r, "").Code)
}

func TestZeroLimitDisables(t *testing.T) {
	r := newEngine(NewRateLimiter(nil, 0, time.Minute).Middleware())
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(r, "").Code)
	}
}

func TestRedisDownFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	r := newEngine(NewRateLimiter(rdb, 1, time.Minute).Middleware())
	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusOK, get(r, "").Code)
}

func TestCORS(t *testing.T) {
	r := newEngine(CORS("https://arena.example"))

	w := get(r, "https://arena.example")
	assert.Equal(t, "https://arena.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(r, "https://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// fakeRedis отвечает на транзакции лимитера без сервера
type fakeRedis struct {
	mu      sync.Mutex
	vals    map[string]int64
	ttl     map[string]string
	batches [][]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{vals: map[string]int64{}, ttl: map[string]string{}}
}

func (f *fakeRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, fmt.Errorf("dial %s: not expected", addr)
	}
}

func (f *fakeRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		return fmt.Errorf("%s outside transaction", cmd.Name())
	}
}

func (f *fakeRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		f.mu.Lock()
		defer f.mu.Unlock()

		var names []string
		for _, cmd := range cmds {
			args := cmd.Args()
			switch c := cmd.(type) {
			case *redis.BoolCmd: // SET key 0 EX n NX
				key := fmt.Sprint(args[1])
				_, exists := f.vals[key]
				if !exists {
					f.vals[key] = 0
					f.ttl[key] = fmt.Sprint(args[3:5]...)
				}
				c.SetVal(!exists)
				names = append(names, "setnx")
			case *redis.IntCmd:
				key := fmt.Sprint(args[1])
				f.vals[key]++
				c.SetVal(f.vals[key])
				names = append(names, "incr")
			}
		}
		f.batches = append(f.batches, names)
		return nil
	}
}

// expire окно истекло
func (f *fakeRedis) expire(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.vals, key)
	delete(f.ttl, key)
}

func TestRedisRateLimitSetsWindowWithCounter(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()
	fake := newFakeRedis()
	rdb.AddHook(fake)

	l := NewRateLimiter(rdb, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	// каждый запрос: SET NX с TTL и INCR в одной транзакции
	require.Len(t, fake.batches, 3)
	for _, b := range fake.batches {
		assert.Equal(t, []string{"setnx", "incr"}, b)
	}
	assert.Equal(t, "ex60", fake.ttl["ratelimit:10.0.0.1"])

	fake.expire("ratelimit:10.0.0.1")
	ok, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}
