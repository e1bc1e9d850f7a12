package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/octobees/hero-savings/api/internal/config"
)

// PathRateLimiter applies a shared token bucket to requests routed to path.
// Other routes pass through untouched.
func PathRateLimiter(path string, cfg config.RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Requests <= 0 || cfg.Interval <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	perRequest := cfg.Interval / time.Duration(cfg.Requests)
	if perRequest <= 0 {
		perRequest = time.Second
	}
	limiter := rate.NewLimiter(rate.Every(perRequest), cfg.Requests)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() != path {
				return next(c)
			}
			if !limiter.Allow() {
				c.Response().Header().Set("Retry-After", retryAfter(perRequest))
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"status":  "error",
					"message": "too many submissions, please try again shortly",
				})
			}
			return next(c)
		}
	}
}

func retryAfter(d time.Duration) string {
	seconds := int(d.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
