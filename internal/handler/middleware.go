package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ipWindow счетчик запросов одного IP в текущем окне
type ipWindow struct {
	startedAt time.Time
	count     int
}

// RateLimitMiddleware ограничивает число запросов с одного IP
// в фиксированном окне времени
func RateLimitMiddleware(window time.Duration, maxRequests int) gin.HandlerFunc {
	var mu sync.Mutex
	windows := make(map[string]*ipWindow)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		w, ok := windows[ip]
		if !ok || now.Sub(w.startedAt) >= window {
			w = &ipWindow{startedAt: now}
			windows[ip] = w
		}
		w.count++
		exceeded := w.count > maxRequests
		mu.Unlock()

		if exceeded {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse("Too many requests from this IP, please try again later."))
			return
		}

		c.Next()
	}
}
