package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodySizeMiddleware returns middleware that limits request body size.
func MaxBodySizeMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && c.Request.ContentLength > maxBytes {
			PayloadTooLargeError(c, fmt.Sprintf("request body too large, maximum: %d bytes", maxBytes))
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

const (
	MaxContentLength = 100 * 1024 // 100KB
	MaxQueryLength   = 10 * 1024  // 10KB
	DefaultBodyLimit = 1 * 1024 * 1024
	MaxLimit         = 1000
	DefaultLimit     = 10
)

// clampLimit keeps a client-supplied limit within sane bounds.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func validateContent(content string) error {
	if content == "" {
		return fmt.Errorf("content must not be empty")
	}
	if len(content) > MaxContentLength {
		return fmt.Errorf("content too long: %d bytes (maximum: %d)", len(content), MaxContentLength)
	}
	return nil
}

func validateQuery(query string) error {
	if query == "" {
		return fmt.Errorf("query must not be empty")
	}
	if len(query) > MaxQueryLength {
		return fmt.Errorf("query too long: %d bytes (maximum: %d)", len(query), MaxQueryLength)
	}
	return nil
}
