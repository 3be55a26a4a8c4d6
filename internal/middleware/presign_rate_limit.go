package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/picstream/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// PresignRateLimit caps how many presign requests one user may make per
// day. Presigned grants are cheap but not free (every grant reserves a
// key), so unlimited grants invite storage-key churn. Resets at midnight
// for predictable behavior; fails open on redis errors.
func PresignRateLimit(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()

		identity := CallerIdentity(c)
		if identity == nil {
			// The service rejects anonymous presigns itself.
			c.Next()
			return
		}

		today := time.Now().Format("2006-01-02")
		key := fmt.Sprintf("presign_limit:%s:%s", identity.ID.String(), today)

		count, err := redisClient.Get(ctx, key).Int()
		if err == redis.Nil {
			now := time.Now()
			midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
			if err := redisClient.Set(ctx, key, 1, midnight.Sub(now)).Err(); err != nil {
				c.Next()
				return
			}
		} else if err != nil {
			c.Next()
			return
		} else if count >= cfg.PresignMaxPerDay {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":             "presign_rate_limit_exceeded",
				"message":           "Too many upload requests today. Please try again tomorrow.",
				"retry_after_hours": int(ttl.Hours()),
			})
			c.Abort()
			return
		} else {
			redisClient.Incr(ctx, key)
		}

		c.Next()
	}
}
