package handler

import (
	"log"
	"net/http"
	"strings"
	"time"

	"digiwallet/internal/model"
	"digiwallet/pkg/response"
	"digiwallet/pkg/token"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// TokenParser 解析访问令牌，由 token.Manager 实现
type TokenParser interface {
	Parse(tokenStr string) (*token.Claims, error)
}

// LoggerMiddleware 日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if query != "" {
			path = path + "?" + query
		}

		log.Printf("[HTTP] %d | %13v | %15s | %-7s %s",
			status,
			latency,
			c.ClientIP(),
			c.Request.Method,
			path,
		)
	}
}

// RecoveryMiddleware 捕获 panic，按统一格式返回 500
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[PANIC] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
				response.Abort(c, http.StatusInternalServerError, response.CodeServerError, "服务器内部错误")
			}
		}()
		c.Next()
	}
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// AuthMiddleware 校验 Bearer 令牌，通过后将调用方身份写入上下文
func AuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			response.Unauthorized(c, "token 无效或已过期")
			return
		}

		claims, err := parser.Parse(strings.TrimSpace(tokenStr))
		if err != nil {
			response.Unauthorized(c, "token 无效或已过期")
			return
		}

		c.Set(identityKey, model.Identity{UserID: claims.UserID, Email: claims.Email})
		c.Next()
	}
}

// identityFrom 取出 AuthMiddleware 写入的身份
func identityFrom(c *gin.Context) model.Identity {
	identity, _ := c.MustGet(identityKey).(model.Identity)
	return identity
}
