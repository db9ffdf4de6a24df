package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"
)

type CtxKey string

const (
	CtxKeyTraceID CtxKey = "trace_id"
	HeaderTraceID        = "X-Trace-Id"
)

// TraceID tags the request context with a ksuid, which the slog handler in
// pkg/logger attaches to every line logged for the request. The id is also
// echoed back so users can quote it when a submission fails.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ksuid.New().String()

		ctx := context.WithValue(c.Request.Context(), CtxKeyTraceID, id)
		c.Request = c.Request.Clone(ctx)
		c.Header(HeaderTraceID, id)

		c.Next()
	}
}

// GetTraceID returns the id set by TraceID, or an empty string.
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(CtxKeyTraceID).(string)
	return id
}
