package middleware

import (
	"net/http"
	"strconv"

	"portfolio-backend/internal/delivery/http/response"
	"portfolio-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Throttle caps the whole API with a token bucket, guarding the mail relay
// and the rate-limit store from floods spread over many client IPs.
// rps <= 0 disables it.
func Throttle(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || limiter.Allow() {
			c.Next()
			return
		}

		logger.Log.Warn("global throttle engaged", "path", c.Request.URL.Path, "ip", c.ClientIP())
		c.Header("Retry-After", strconv.Itoa(1))
		response.Error(c, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		c.Abort()
	}
}
