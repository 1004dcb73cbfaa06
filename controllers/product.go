package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/BerniceZTT/shop_end/models"
	"github.com/BerniceZTT/shop_end/repository"
	"github.com/BerniceZTT/shop_end/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetProducts 获取产品列表，支持关键字搜索和分页
func GetProducts(c *gin.Context) {
	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit < 1 {
		limit = 20
	}
	skip := (page - 1) * limit

	query := bson.M{}
	if keyword := c.Query("keyword"); keyword != "" {
		query["$or"] = []bson.M{
			{"name": bson.M{"$regex": keyword, "$options": "i"}},
			{"brand": bson.M{"$regex": keyword, "$options": "i"}},
		}
	}

	collection := repository.Collection(repository.ProductsCollection)
	ctx := repository.GetContext()

	total, err := collection.CountDocuments(ctx, query)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	findOptions := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := collection.Find(ctx, query, findOptions)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, products, total, page, limit)
}

// GetProduct 获取单个产品详情，附带库存台账
func GetProduct(c *gin.Context) {
	id := c.Param("id")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("无效的产品ID"))
		return
	}

	ctx := repository.GetContext()

	var product models.Product
	err = repository.Collection(repository.ProductsCollection).
		FindOne(ctx, bson.M{"_id": objID}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.HandleError(c, utils.CreateNotFoundError("产品"))
			return
		}
		utils.HandleError(c, err)
		return
	}

	// 库存台账可能不存在（历史数据），不阻塞产品详情
	var inventory *models.Inventory
	var inv models.Inventory
	err = repository.Collection(repository.InventoryCollection).
		FindOne(ctx, bson.M{"productId": id}).Decode(&inv)
	if err == nil {
		inventory = &inv
	} else if err != mongo.ErrNoDocuments {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product":   product,
		"inventory": inventory,
	}, "")
}

// CreateProduct 创建产品，同时初始化库存台账和默认告警配置
func CreateProduct(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.ErrorResponse(c, err.Error(), http.StatusUnauthorized)
		return
	}
	if !utils.CanManageInventory(user.Role) {
		utils.ErrorResponse(c, "无权创建产品", http.StatusForbidden)
		return
	}

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, "无效的请求参数: "+err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now()
	product := models.Product{
		Name:        req.Name,
		Brand:       req.Brand,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx := repository.GetContext()
	result, err := repository.Collection(repository.ProductsCollection).InsertOne(ctx, product)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	productID := result.InsertedID.(primitive.ObjectID)
	product.ID = productID

	// 初始化库存台账
	inventory := models.NewInventory(productID.Hex(), req.InitialStock)
	inventory.MinStock = req.MinStock
	inventory.MaxStock = req.MaxStock
	if _, err := repository.Collection(repository.InventoryCollection).InsertOne(ctx, inventory); err != nil {
		utils.LogError(err, map[string]interface{}{
			"productId": productID.Hex(),
		}, "初始化库存台账失败")
		utils.HandleError(c, err)
		return
	}

	// 初始化默认告警配置
	alertConfig := models.NewDefaultAlertConfig(productID.Hex())
	if _, err := repository.Collection(repository.AlertConfigsCollection).InsertOne(ctx, alertConfig); err != nil {
		utils.LogError(err, map[string]interface{}{
			"productId": productID.Hex(),
		}, "初始化告警配置失败")
		utils.HandleError(c, err)
		return
	}

	utils.LogInfo(map[string]interface{}{
		"productId":    productID.Hex(),
		"name":         product.Name,
		"initialStock": req.InitialStock,
		"operator":     user.Username,
	}, "产品创建成功")

	utils.SuccessResponse(c, gin.H{
		"product":   product,
		"inventory": inventory,
	}, "产品创建成功", http.StatusCreated)
}

// UpdateProduct 更新产品基本信息（库存走库存操作接口，不在此处修改）
func UpdateProduct(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.ErrorResponse(c, err.Error(), http.StatusUnauthorized)
		return
	}
	if !utils.CanManageInventory(user.Role) {
		utils.ErrorResponse(c, "无权更新产品", http.StatusForbidden)
		return
	}

	id := c.Param("id")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("无效的产品ID"))
		return
	}

	var req struct {
		Name        *string  `json:"name"`
		Brand       *string  `json:"brand"`
		Price       *float64 `json:"price" binding:"omitempty,gt=0"`
		ImageURL    *string  `json:"imageUrl"`
		Description *string  `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, "无效的请求参数: "+err.Error(), http.StatusBadRequest)
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if req.Name != nil {
		update["name"] = *req.Name
	}
	if req.Brand != nil {
		update["brand"] = *req.Brand
	}
	if req.Price != nil {
		update["price"] = *req.Price
	}
	if req.ImageURL != nil {
		update["imageUrl"] = *req.ImageURL
	}
	if req.Description != nil {
		update["description"] = *req.Description
	}

	result, err := repository.Collection(repository.ProductsCollection).
		UpdateOne(repository.GetContext(), bson.M{"_id": objID}, bson.M{"$set": update})
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if result.MatchedCount == 0 {
		utils.HandleError(c, utils.CreateNotFoundError("产品"))
		return
	}

	utils.SuccessResponse(c, nil, "产品更新成功")
}

// DeleteProduct 删除产品，级联清理库存台账和告警配置
func DeleteProduct(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.ErrorResponse(c, err.Error(), http.StatusUnauthorized)
		return
	}
	if user.Role != string(models.UserRoleSUPER_ADMIN) {
		utils.ErrorResponse(c, "无权删除产品", http.StatusForbidden)
		return
	}

	id := c.Param("id")
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("无效的产品ID"))
		return
	}

	ctx := repository.GetContext()
	result, err := repository.Collection(repository.ProductsCollection).DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if result.DeletedCount == 0 {
		utils.HandleError(c, utils.CreateNotFoundError("产品"))
		return
	}

	// 级联清理，失败只记录日志（产品已删除，残留数据不影响主流程）
	if _, err := repository.Collection(repository.InventoryCollection).DeleteOne(ctx, bson.M{"productId": id}); err != nil {
		utils.LogError(err, map[string]interface{}{"productId": id}, "清理库存台账失败")
	}
	if _, err := repository.Collection(repository.AlertConfigsCollection).DeleteOne(ctx, bson.M{"productId": id}); err != nil {
		utils.LogError(err, map[string]interface{}{"productId": id}, "清理告警配置失败")
	}

	utils.LogInfo(map[string]interface{}{
		"productId": id,
		"operator":  user.Username,
	}, "产品删除成功")

	utils.SuccessResponse(c, nil, "产品删除成功")
}
