package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"snapgram/internal/domain"
)

const (
	headerRequestID = "X-Request-ID"
	bearerPrefix    = "Bearer "

	ctxLoggerKey = "logger"
	ctxActorKey  = "actor"
)

// requestLogger tags every request with an id and logs its outcome.
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		entry := logger.WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"client_ip":  c.ClientIP(),
		})
		c.Header(headerRequestID, reqID)
		c.Set(ctxLoggerKey, entry)

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		}
		if actor := actorFrom(c); actor.Authenticated() {
			fields["user_id"] = actor.UserID
		}
		entry.WithFields(fields).Info("request completed")
	}
}

// authenticate attaches the actor named by a valid bearer access token.
// Anything else leaves the request anonymous; write paths reject it via the policy.
func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if h.tokens == nil || !strings.HasPrefix(header, bearerPrefix) {
			c.Next()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		actor, err := h.tokens.Verify(token)
		if err != nil {
			h.log(c).WithError(err).Debug("ignoring invalid access token")
			c.Next()
			return
		}
		c.Set(ctxActorKey, actor)
		c.Next()
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get(ctxActorKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}

func (h *Handler) log(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(ctxLoggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return h.logger
}
