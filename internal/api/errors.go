package api

import (
	"errors"
	"io"
	"net/http"

	"MemeArena/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const internalErrorMessage = "Internal server error"

// writeError 业务错误按类别返回 message；其他错误记日志后统一 500
func writeError(c *gin.Context, logger *logrus.Logger, op string, err error) {
	if se, ok := service.AsError(err); ok {
		if se.Kind == service.KindInternal {
			logger.WithError(err).WithField("path", c.FullPath()).Error(op + " failed")
		}
		c.JSON(se.Kind.HTTPStatus(), gin.H{"error": se.Message})
		return
	}
	logger.WithError(err).WithField("path", c.FullPath()).Error(op + " failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
}

// bindJSON 绑定请求体；校验失败返回 invalidMsg，空请求体视为 {}
func bindJSON(c *gin.Context, req interface{}, invalidMsg string) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	err := c.ShouldBindJSON(req)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidMsg})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
	return false
}
