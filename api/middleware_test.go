package api

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateLimitedRouter(rateLimiters *sync.Map, rps, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	stop := make(chan struct{})
	router.Use(PerClientRateLimit(rateLimiters, stop, &sync.Once{}, rps, burst))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestPerClientRateLimitEnforcesBurst(t *testing.T) {
	var rateLimiters sync.Map
	router := rateLimitedRouter(&rateLimiters, 1, 2)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestPerClientRateLimitSurvivesConcurrentClients(t *testing.T) {
	var rateLimiters sync.Map
	router := rateLimitedRouter(&rateLimiters, 100, 100)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				w := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodGet, "/ping", nil)
				req.RemoteAddr = "10.0.0.7:1234"
				router.ServeHTTP(w, req)
				// The cleanup pass races the per-request timestamp
				// update, exactly as the background goroutine does
				purgeStaleRateLimiters(&rateLimiters, time.Now())
			}
		}()
	}
	wg.Wait()
}

func TestPurgeStaleRateLimitersDropsIdleClients(t *testing.T) {
	var rateLimiters sync.Map
	router := rateLimitedRouter(&rateLimiters, 1, 1)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	_, ok := rateLimiters.Load("10.0.0.2")
	require.True(t, ok)

	// A recent client survives the sweep
	purgeStaleRateLimiters(&rateLimiters, time.Now())
	_, ok = rateLimiters.Load("10.0.0.2")
	assert.True(t, ok)

	// An idle one is dropped
	purgeStaleRateLimiters(&rateLimiters, time.Now().Add(11*time.Minute))
	_, ok = rateLimiters.Load("10.0.0.2")
	assert.False(t, ok)
}
