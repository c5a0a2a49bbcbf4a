package middleware

import (
	"github.com/chempartner/paperdesk/internal/apperror"
	"github.com/chempartner/paperdesk/internal/controller"
	"github.com/chempartner/paperdesk/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RateLimit rejects requests once the client address exceeds the limiter's
// budget. It must run before the auth guard so an over-limit client is
// refused without its token being looked at.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.Allow(ip) {
			log.Warn().Str("client_ip", ip).Str("path", c.FullPath()).Msg("Rate limit exceeded")
			controller.AbortWithError(c, apperror.ErrRateLimited)
			return
		}
		c.Next()
	}
}
