package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/BerniceZTT/shop_end/models"
	"github.com/BerniceZTT/shop_end/repository"
	"github.com/BerniceZTT/shop_end/service"
	"github.com/BerniceZTT/shop_end/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InventoryController 库存操作控制器，所有库存变更都经过台账服务
type InventoryController struct {
	ledger *service.LedgerService
}

// NewInventoryController 创建库存控制器
func NewInventoryController(ledger *service.LedgerService) *InventoryController {
	return &InventoryController{ledger: ledger}
}

// GetInventory 查询产品库存台账
func (ctrl *InventoryController) GetInventory(c *gin.Context) {
	productID := c.Param("productId")

	inv, err := ctrl.ledger.Get(c.Request.Context(), productID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, inv, "")
}

// GetChannels 查询产品的渠道库存明细和差异诊断
func (ctrl *InventoryController) GetChannels(c *gin.Context) {
	productID := c.Param("productId")

	inv, err := ctrl.ledger.Get(c.Request.Context(), productID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	if inv.HasChannelDiscrepancy() {
		utils.LogInconsistency("库存", c.Request.URL.Path,
			inv.Channels.Physical.Stock, inv.Channels.Digital.Stock)
	}

	utils.SuccessResponse(c, gin.H{
		"productId":      productID,
		"physical":       inv.Channels.Physical,
		"digital":        inv.Channels.Digital,
		"hasDiscrepancy": inv.HasChannelDiscrepancy(),
		"difference":     inv.ChannelDifference(),
	}, "")
}

// Reserve 预留库存（下单）
func (ctrl *InventoryController) Reserve(c *gin.Context) {
	ctrl.stockOperation(c, models.OperationReserve)
}

// Release 释放预留（取消订单）
func (ctrl *InventoryController) Release(c *gin.Context) {
	ctrl.stockOperation(c, models.OperationRelease)
}

// Sell 售出库存（发货）
func (ctrl *InventoryController) Sell(c *gin.Context) {
	ctrl.stockOperation(c, models.OperationSell)
}

// stockOperation 预留/释放/售出的公共处理流程
func (ctrl *InventoryController) stockOperation(c *gin.Context, opType string) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.ErrorResponse(c, err.Error(), http.StatusUnauthorized)
		return
	}

	productID := c.Param("productId")

	var req models.StockOperation
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, "无效的请求参数: "+err.Error(), http.StatusBadRequest)
		return
	}

	ctx := c.Request.Context()
	var snap *models.StockSnapshot

	switch opType {
	case models.OperationReserve:
		snap, err = ctrl.ledger.Reserve(ctx, productID, req.Quantity, req.Remark, user)
	case models.OperationRelease:
		snap, err = ctrl.ledger.Release(ctx, productID, req.Quantity, req.Remark, user)
	case models.OperationSell:
		snap, err = ctrl.ledger.Sell(ctx, productID, req.Quantity, req.Remark, user)
	}

	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, snap, "库存操作成功")
}

// Restock 入库补货，支持操作幂等键，重试时不会重复入库
func (ctrl *InventoryController) Restock(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.ErrorResponse(c, err.Error(), http.StatusUnauthorized)
		return
	}
	if !utils.CanManageInventory(user.Role) {
		utils.ErrorResponse(c, "无权执行入库操作", http.StatusForbidden)
		return
	}

	productID := c.Param("productId")

	var req models.RestockOperation
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, "无效的请求参数: "+err.Error(), http.StatusBadRequest)
		return
	}

	ctx := c.Request.Context()
	recordsCollection := repository.Collection(repository.InventoryRecordsCollection)

	result, err := utils.ExecuteInventoryOperation(
		func() (bool, error) {
			// 幂等检查：相同operationId的入库只生效一次
			if req.OperationID == "" {
				return false, nil
			}
			count, err := recordsCollection.CountDocuments(ctx, bson.M{"operationId": req.OperationID})
			if err != nil {
				return false, err
			}
			return count > 0, nil
		},
		func() (interface{}, error) {
			return ctrl.ledger.Restock(ctx, productID, req.Quantity, req.Notes, req.OperationID, user)
		},
		2,
	)

	utils.LogInventoryOperation(models.OperationRestock, productID, req.Quantity, err == nil)

	if err != nil {
		if result != nil && result["statusUncertain"] == true {
			utils.InventoryOperationResponse(c, result, false)
			return
		}
		utils.HandleError(c, err)
		return
	}

	utils.InventoryOperationResponse(c, result, true)
}

// Reconcile 人工触发渠道对账，以线下渠道数量为准
func (ctrl *InventoryController) Reconcile(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.ErrorResponse(c, err.Error(), http.StatusUnauthorized)
		return
	}
	if !utils.CanManageInventory(user.Role) {
		utils.ErrorResponse(c, "无权执行渠道对账", http.StatusForbidden)
		return
	}

	productID := c.Param("productId")

	inv, err := ctrl.ledger.Reconcile(c.Request.Context(), productID, user)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, inv, "渠道对账完成")
}

// GetInventoryRecords 获取库存操作记录
func GetInventoryRecords(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if !utils.CanManageInventory(user.Role) {
		utils.ErrorResponse(c, "无权查看库存记录", http.StatusForbidden)
		return
	}

	// 获取查询参数
	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit < 1 {
		limit = 20
	}
	skip := (page - 1) * limit

	// 筛选条件
	searchQuery := bson.M{}

	if productID := c.Query("productId"); productID != "" {
		searchQuery["productId"] = productID
	}

	if operationType := c.Query("operationType"); operationType != "" && operationType != "all" {
		searchQuery["operationType"] = operationType
	}

	// 时间范围筛选
	startDateStr := c.Query("startDate")
	endDateStr := c.Query("endDate")

	if startDateStr != "" && endDateStr != "" {
		startDate, err := time.Parse(time.RFC3339, startDateStr+"T00:00:00Z")
		if err != nil {
			utils.HandleError(c, utils.CreateBadRequestError("无效的开始日期"))
			return
		}

		// 结束日期设置为当天的23:59:59
		endDate, err := time.Parse(time.RFC3339, endDateStr+"T23:59:59Z")
		if err != nil {
			utils.HandleError(c, utils.CreateBadRequestError("无效的结束日期"))
			return
		}

		searchQuery["operationTime"] = bson.M{"$gte": startDate, "$lte": endDate}
	} else {
		// 默认最近30天
		days := 30
		if daysStr := c.Query("days"); daysStr != "" {
			if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
				days = d
			}
		}
		searchQuery["operationTime"] = bson.M{"$gte": time.Now().AddDate(0, 0, -days)}
	}

	collection := repository.Collection(repository.InventoryRecordsCollection)
	ctx := repository.GetContext()

	total, err := collection.CountDocuments(ctx, searchQuery)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	findOptions := options.Find().
		SetSort(bson.M{"operationTime": -1}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := collection.Find(ctx, searchQuery, findOptions)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer cursor.Close(ctx)

	var records []models.InventoryRecord
	if err := cursor.All(ctx, &records); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, records, total, page, limit)
}

// GetInventoryStats 获取库存统计信息
func GetInventoryStats(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if !utils.CanManageInventory(user.Role) {
		utils.ErrorResponse(c, "无权查看库存统计", http.StatusForbidden)
		return
	}

	ctx := repository.GetContext()
	inventoryCollection := repository.Collection(repository.InventoryCollection)

	// 产品总数
	totalProducts, err := inventoryCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	// 缺货产品数
	outOfStockProducts, err := inventoryCollection.CountDocuments(ctx, bson.M{"status": models.InventoryStatusOutOfStock})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	// 总库存量和总预留量
	var stockResult []bson.M
	stockPipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"totalStock":    bson.M{"$sum": "$currentStock"},
			"totalReserved": bson.M{"$sum": "$reservedStock"},
		}}},
	}

	stockCursor, err := inventoryCollection.Aggregate(ctx, stockPipeline)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer stockCursor.Close(ctx)

	if err := stockCursor.All(ctx, &stockResult); err != nil {
		utils.HandleError(c, err)
		return
	}

	totalStock := int64(0)
	totalReserved := int64(0)
	if len(stockResult) > 0 {
		totalStock = toInt64(stockResult[0]["totalStock"])
		totalReserved = toInt64(stockResult[0]["totalReserved"])
	}

	// 最近30天的库存变动（入库/售出）
	recordsCollection := repository.Collection(repository.InventoryRecordsCollection)
	fromDate := time.Now().AddDate(0, 0, -30)

	totalIn, err := sumOperationQuantity(recordsCollection, models.OperationRestock, fromDate)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	totalOut, err := sumOperationQuantity(recordsCollection, models.OperationSell, fromDate)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	stats := models.InventoryStats{
		TotalProducts:      totalProducts,
		OutOfStockProducts: outOfStockProducts,
		TotalStock:         totalStock,
		TotalReserved:      totalReserved,
		RecentChanges: models.RecentChanges{
			In:  totalIn,
			Out: totalOut,
			Net: totalIn - totalOut,
		},
	}

	utils.SuccessResponse(c, stats, "", http.StatusOK)
}

// sumOperationQuantity 汇总指定时间之后某操作类型的数量
func sumOperationQuantity(collection *mongo.Collection, operationType string, fromDate time.Time) (int64, error) {
	ctx := repository.GetContext()
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"operationType": operationType, "operationTime": bson.M{"$gte": fromDate}}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$quantity"}}}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}

	if len(results) == 0 {
		return 0, nil
	}
	return toInt64(results[0]["total"]), nil
}

// toInt64 兼容MongoDB聚合结果的数值类型
func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
