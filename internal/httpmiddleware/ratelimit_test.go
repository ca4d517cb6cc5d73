package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestTokenBucketRefills(t *testing.T) {
	clk := &clock{t: time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)}
	l := NewTokenBucket(2, 60)
	l.now = clk.now

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "buckets are per key")

	clk.t = clk.t.Add(time.Second)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	clk.t = clk.t.Add(time.Hour)
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "refill is capped at capacity")
}

func TestSweepDropsIdleBuckets(t *testing.T) {
	clk := &clock{t: time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)}
	l := NewTokenBucket(1, 1)
	l.now = clk.now
	l.Allow("a")
	clk.t = clk.t.Add(10 * time.Minute)
	l.Allow("b")

	assert.Equal(t, 1, l.Sweep(5*time.Minute))
	assert.Len(t, l.state, 1)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewTokenBucket(1, 1)
	r := gin.New()
	r.Use(SecurityHeaders(), l.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		return w
	}
	first := do()
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "nosniff", first.Header().Get("X-Content-Type-Options"))

	second := do()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}
