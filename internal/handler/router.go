package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouterConfig 路由依赖
type RouterConfig struct {
	Handler   *Handler
	Tokens    TokenParser
	UploadDir string
}

// SetupRouter 配置路由
func SetupRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	h := cfg.Handler

	// 公开接口
	r.POST("/registration", h.Register)
	r.POST("/login", h.Login)
	r.GET("/banner", h.ListBanners)

	if cfg.UploadDir != "" {
		r.Static("/uploads", cfg.UploadDir)
	}

	// 需要登录
	auth := r.Group("/", AuthMiddleware(cfg.Tokens))
	{
		auth.GET("/profile", h.GetProfile)
		auth.PUT("/profile/update", h.UpdateProfile)
		auth.PUT("/profile/image", h.UpdateProfileImage)

		auth.GET("/services", h.ListServices)

		auth.GET("/balance", h.GetBalance)
		auth.POST("/topup", h.TopUp)
		auth.POST("/transaction", h.Pay)
		auth.GET("/transaction/history", h.ListHistory)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
