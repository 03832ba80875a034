package middleware

import (
	"math"
	"net/http"

	"github.com/cliniqa/intake/internal/ratelimit"
	"github.com/cliniqa/intake/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RateLimit throttles the interview surface per (invitation, client ip).
// Must run after InviteSession so the invitation id is on the context.
// A limiter backend failure fails open: throttling is protection, not
// authorization.
func RateLimit(l ratelimit.Limiter, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get("invitation_id")
		invitationID, _ := v.(string)
		if invitationID == "" {
			c.Next()
			return
		}

		d, err := l.Allow(c.Request.Context(), ratelimit.Key(invitationID, c.ClientIP()))
		if err != nil {
			log.WithError(err).Warn("rate limiter unavailable, failing open")
			c.Next()
			return
		}

		if !d.Allowed {
			retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":              utils.CodeResourceExhausted,
				"message":           "too many requests for this invitation",
				"retryAfterSeconds": retryAfter,
			})
			return
		}
		c.Next()
	}
}
