package routes

import (
	"github.com/BerniceZTT/shop_end/controllers"
	"github.com/BerniceZTT/shop_end/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAlertRoutes 注册告警与通知相关路由
func RegisterAlertRoutes(router *gin.Engine, ctrl *controllers.AlertController) {
	alertRoutes := router.Group("/api/alerts")
	alertRoutes.Use(middleware.AuthMiddleware())

	alertRoutes.GET("", ctrl.ListAlerts)
	alertRoutes.GET("/config/:productId", ctrl.GetAlertConfig)
	alertRoutes.PUT("/config/:productId", middleware.PermissionMiddleware("alerts", "update"), ctrl.UpdateAlertConfig)
	alertRoutes.POST("/sweep", ctrl.RunSweep)

	notificationRoutes := router.Group("/api/notifications")
	notificationRoutes.Use(middleware.AuthMiddleware())

	notificationRoutes.GET("/queue", ctrl.GetQueueStatus)
	notificationRoutes.POST("", middleware.PermissionMiddleware("notifications", "create"), ctrl.EnqueueNotification)
	notificationRoutes.POST("/test", ctrl.SendTestNotification)
}
