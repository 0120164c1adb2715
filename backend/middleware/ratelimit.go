package middleware

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"diwt-portal/backend/utils"
)

const (
	loginAttemptLimit  = 10
	loginAttemptWindow = time.Minute
)

// LoginRateLimiter ограничивает число попыток входа с одного IP.
// При выключенном Redis (rdb == nil) пропускает всё.
func LoginRateLimiter(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil {
			return c.Next()
		}

		key := fmt.Sprintf("rate:login:%s", c.IP())
		count, err := rdb.Incr(c.Context(), key).Result()
		if err != nil {
			// Redis недоступен — вход важнее лимита
			log.Printf("login rate limiter error: %v", err)
			return c.Next()
		}

		if count == 1 {
			rdb.Expire(c.Context(), key, loginAttemptWindow)
		}

		if count > loginAttemptLimit {
			return utils.TooManyRequests(c, "Too many login attempts, try again later")
		}

		return c.Next()
	}
}
