package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kramxie/neo-routine-sub000/metrics"
)

// Metrics records request count and latency labelled by the matched route.
func Metrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		metrics.ObserveHTTPRequest(ctx.Request.Method, ctx.FullPath(), ctx.Writer.Status(), time.Since(start))
	}
}
