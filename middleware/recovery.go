package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/OlogyCrew/ologywoodv3/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Recovery turns a panicking handler into a 500 response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			requestID := GetRequestID(c)
			logger.Error(c.Request.Context(), "panic recovered",
				"error", fmt.Sprint(rec),
				"method", c.Request.Method,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":      "Internal server error",
				"request_id": requestID,
			})
		}()

		c.Next()
	}
}
