package routes

import (
	"github.com/BerniceZTT/shop_end/controllers"
	"github.com/BerniceZTT/shop_end/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterProductRoutes 注册产品管理相关路由
func RegisterProductRoutes(router *gin.Engine) {
	productRoutes := router.Group("/api/products")
	productRoutes.Use(middleware.AuthMiddleware())

	productRoutes.GET("", controllers.GetProducts)
	productRoutes.GET("/:id", controllers.GetProduct)
	productRoutes.POST("", middleware.PermissionMiddleware("products", "create"), controllers.CreateProduct)
	productRoutes.PUT("/:id", middleware.PermissionMiddleware("products", "update"), controllers.UpdateProduct)
	productRoutes.DELETE("/:id", controllers.DeleteProduct)
}
