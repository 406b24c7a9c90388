package api

import (
	"Recall_1.0/backend/go/internal/models"
	"Recall_1.0/backend/go/pkg/logger"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceHeader carries the per-request trace id.
const TraceHeader = "X-Trace-Id"

const traceKey = "traceID"

// RequestLogger assigns a trace id and logs one line per request.
func RequestLogger(base *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set(traceKey, traceID)
		c.Header(TraceHeader, traceID)

		start := time.Now()
		c.Next()

		l := base.WithTrace(traceID).WithRequest(models.RequestInfo{
			Method:     c.Request.Method,
			Path:       c.FullPath(),
			RemoteAddr: c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Status:     c.Writer.Status(),
			LatencyMS:  time.Since(start).Milliseconds(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			l.Error("request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			l.Warn("request rejected")
		default:
			l.Info("request handled")
		}
	}
}

// Recovery turns a panic into a JSON 500 so one bad request never takes the process down.
func Recovery(base *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		traceID, _ := c.Get(traceKey)
		base.WithField("trace_id", traceID).
			WithError(models.ErrorInfo{Message: fmt.Sprint(recovered), Type: "panic", StatusCode: http.StatusInternalServerError}).
			Error("panic while handling request")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}
