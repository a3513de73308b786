package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"MemeArena/internal/identity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const callerKey = "callerID"

// bearerToken 取 Authorization: Bearer <token>
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// callerID 当前调用者，匿名为空串
func callerID(c *gin.Context) string {
	return c.GetString(callerKey)
}

// OptionalAuth 有令牌时解析调用者；令牌无效按匿名处理
func OptionalAuth(v identity.Verifier, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		id, err := v.Verify(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(callerKey, id)
		case errors.Is(err, identity.ErrInvalidToken):
		default:
			logger.WithError(err).Warn("身份校验失败，按匿名处理")
		}
		c.Next()
	}
}

// RequireAuth 需在 OptionalAuth 之后使用
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if callerID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// CronAuth 校验调度器的共享密钥；未配置密钥时拒绝所有请求
func CronAuth(secret string) gin.HandlerFunc {
	expected := []byte("Bearer " + secret)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader("Authorization"))
		if secret == "" || subtle.ConstantTimeCompare(got, expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RequestLogger 访问日志
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if id := callerID(c); id != "" {
			entry = entry.WithField("caller_id", id)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request")
			return
		}
		entry.Debug("request")
	}
}
