package httpserver

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mschachner/drop-in/internal/api"
)

const bearerKey = "bearer"

// AccessLog logs one line per request.
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// metadata only, never bodies
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// Recover turns handler panics into a 500 response.
func Recover(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("route", c.FullPath()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, api.Error{Message: "internal error"})
			}
		}()
		c.Next()
	}
}

// Bearer stores the raw bearer token, if any, for later session resolution.
func Bearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			c.Set(bearerKey, strings.TrimSpace(tok))
		}
		c.Next()
	}
}

func bearer(c *gin.Context) string {
	return c.GetString(bearerKey)
}

// adminOnly requires an admin token when the registry is protected.
func (s *Server) adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.ProtectRegistry {
			c.Next()
			return
		}
		if err := s.Identity.RequireAdmin(bearer(c)); err != nil {
			s.writeError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
