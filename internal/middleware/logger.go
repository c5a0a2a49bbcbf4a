package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger logs every request as a structured gin_request event. The
// ?token= query is never logged since it carries a credential.
func RequestLogger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		var event *zerolog.Event
		switch {
		case param.StatusCode >= http.StatusInternalServerError:
			event = log.Error()
		case param.StatusCode >= http.StatusBadRequest:
			event = log.Warn()
		default:
			event = log.Info()
		}
		event.
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Request.URL.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Int("body_size", param.BodySize).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	})
}
