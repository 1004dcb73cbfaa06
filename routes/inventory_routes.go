package routes

import (
	"github.com/BerniceZTT/shop_end/controllers"
	"github.com/BerniceZTT/shop_end/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterInventoryRoutes 注册库存管理相关路由
func RegisterInventoryRoutes(router *gin.Engine, ctrl *controllers.InventoryController) {
	inventoryRoutes := router.Group("/api/inventory")
	inventoryRoutes.Use(middleware.AuthMiddleware())

	// 库存查询
	inventoryRoutes.GET("/records", controllers.GetInventoryRecords)
	inventoryRoutes.GET("/stats", controllers.GetInventoryStats)
	inventoryRoutes.GET("/:productId", ctrl.GetInventory)
	inventoryRoutes.GET("/:productId/channels", ctrl.GetChannels)

	// 库存操作
	inventoryRoutes.POST("/:productId/reserve", ctrl.Reserve)
	inventoryRoutes.POST("/:productId/release", ctrl.Release)
	inventoryRoutes.POST("/:productId/sell", ctrl.Sell)
	inventoryRoutes.POST("/:productId/restock", middleware.PermissionMiddleware("inventory", "update"), ctrl.Restock)
	inventoryRoutes.POST("/:productId/reconcile", middleware.PermissionMiddleware("inventory", "update"), ctrl.Reconcile)
}
