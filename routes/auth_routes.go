package routes

import (
	"github.com/BerniceZTT/shop_end/controllers"
	"github.com/BerniceZTT/shop_end/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes 注册认证相关路由
func RegisterAuthRoutes(router *gin.Engine) {
	authRoutes := router.Group("/api/auth")

	// 登录不需要认证
	authRoutes.POST("/login", controllers.Login)

	// token校验需要认证
	authRoutes.GET("/validate", middleware.AuthMiddleware(), controllers.ValidateToken)
}
