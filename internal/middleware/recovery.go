package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/calculator/backend/internal/models"
)

// Recovery converts a panic in a handler into a 500 error envelope so clients
// always get the same response shape.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[%s] PANIC %s %s: %v\n%s", GetRequestID(c), c.Request.Method, c.Request.URL.Path, r, debug.Stack())
				if c.Writer.Written() {
					c.Abort()
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					models.ErrorEnvelope(fmt.Sprintf("Internal server error: %v", r)))
			}
		}()
		c.Next()
	}
}
