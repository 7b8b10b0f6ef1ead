package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request once it has been served. Websocket
// sessions log when they end.
func (s *Server) RequestLogger(c *gin.Context) {
	start := time.Now()

	c.Next()

	s.logger.Info("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("latency", time.Since(start)),
		zap.String("ip", c.ClientIP()),
	)
}
