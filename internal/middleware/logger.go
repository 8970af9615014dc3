package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// AccessLogger writes one key=value line per request, including the owner id
// once the auth middleware has run.
func AccessLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			for _, err := range c.Errors {
				log.Printf("request_error method=%s path=%s error=%q", c.Request.Method, c.Request.URL.Path, err.Error())
			}
		}
		log.Printf(
			"api_access method=%s path=%s status=%d owner=%q client_ip=%s latency=%s",
			c.Request.Method,
			c.Request.URL.Path,
			status,
			c.GetString("owner_id"),
			c.ClientIP(),
			time.Since(start),
		)
	}
}
