package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// UploadRateLimit caps the number of uploads a user may perform per day.
// The counter lives in redis and expires at midnight. Redis being down
// never blocks an upload.
func UploadRateLimit(client *redis.Client, maxPerDay int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || maxPerDay <= 0 || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		user, ok := CurrentUser(c)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		today := time.Now().Format("2006-01-02")
		key := fmt.Sprintf("upload_limit:%s:%s", user.ID, today)

		count, err := client.Get(ctx, key).Int()
		switch {
		case err == redis.Nil:
			now := time.Now()
			midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
			if err := client.Set(ctx, key, 1, midnight.Sub(now)).Err(); err != nil {
				c.Next()
				return
			}
		case err != nil:
			c.Next()
			return
		case count >= maxPerDay:
			ttl, _ := client.TTL(ctx, key).Result()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":             "upload_rate_limit_exceeded",
				"retry_after_hours": int(ttl.Hours()),
				"uploads_today":     count,
			})
			return
		default:
			client.Incr(ctx, key)
		}

		c.Next()
	}
}
