package controllers

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/BerniceZTT/shop_end/models"
	"github.com/BerniceZTT/shop_end/repository"
	"github.com/BerniceZTT/shop_end/service"
	"github.com/BerniceZTT/shop_end/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var validate = validator.New()

// AlertController 告警配置与通知控制器
type AlertController struct {
	store     *repository.MongoAlertStore
	scheduler *service.AlertScheduler
	queue     *service.NotificationQueue
}

// NewAlertController 创建告警控制器
func NewAlertController(store *repository.MongoAlertStore, scheduler *service.AlertScheduler, queue *service.NotificationQueue) *AlertController {
	return &AlertController{
		store:     store,
		scheduler: scheduler,
		queue:     queue,
	}
}

// GetAlertConfig 查询产品的告警配置
func (ctrl *AlertController) GetAlertConfig(c *gin.Context) {
	productID := c.Param("productId")

	var cfg models.AlertConfig
	err := repository.Collection(repository.AlertConfigsCollection).
		FindOne(repository.GetContext(), bson.M{"productId": productID}).Decode(&cfg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.HandleError(c, utils.CreateNotFoundError("告警配置"))
			return
		}
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, cfg, "")
}

// UpdateAlertConfig 更新产品的告警配置，未提供的字段保持原值。
// 阈值顺序颠倒不拒绝请求，记录告警后按原始值生效
func (ctrl *AlertController) UpdateAlertConfig(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.ErrorResponse(c, err.Error(), http.StatusUnauthorized)
		return
	}
	if !utils.CanManageInventory(user.Role) {
		utils.ErrorResponse(c, "无权修改告警配置", http.StatusForbidden)
		return
	}

	productID := c.Param("productId")

	var req models.UpdateAlertConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, "无效的请求参数: "+err.Error(), http.StatusBadRequest)
		return
	}

	ctx := repository.GetContext()
	collection := repository.Collection(repository.AlertConfigsCollection)

	var cfg models.AlertConfig
	err = collection.FindOne(ctx, bson.M{"productId": productID}).Decode(&cfg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.HandleError(c, utils.CreateNotFoundError("告警配置"))
			return
		}
		utils.HandleError(c, err)
		return
	}

	// 合并更新字段
	if req.LowStockThreshold != nil {
		cfg.LowStockThreshold = *req.LowStockThreshold
	}
	if req.CriticalStockThreshold != nil {
		cfg.CriticalStockThreshold = *req.CriticalStockThreshold
	}
	if req.OutOfStockThreshold != nil {
		cfg.OutOfStockThreshold = *req.OutOfStockThreshold
	}
	if req.EmailAlerts != nil {
		cfg.EmailAlerts = *req.EmailAlerts
	}
	if req.AppAlerts != nil {
		cfg.AppAlerts = *req.AppAlerts
	}
	if req.WebhookAlerts != nil {
		cfg.WebhookAlerts = *req.WebhookAlerts
	}
	if req.AlertFrequency != nil {
		cfg.AlertFrequency = *req.AlertFrequency
	}
	if req.AutoRestock != nil {
		cfg.AutoRestock = *req.AutoRestock
	}
	if req.Status != nil {
		cfg.Status = *req.Status
	}

	// 校验通知通道的地址格式
	for _, recipient := range cfg.EmailAlerts.Recipients {
		if err := validate.Var(recipient, "email"); err != nil {
			utils.HandleError(c, utils.CreateValidationError("无效的收件人邮箱: "+recipient))
			return
		}
	}
	if cfg.WebhookAlerts.Enabled && cfg.WebhookAlerts.URL != "" {
		if err := validate.Var(cfg.WebhookAlerts.URL, "url"); err != nil {
			utils.HandleError(c, utils.CreateValidationError("无效的webhook地址"))
			return
		}
	}

	if !cfg.ThresholdsOrdered() {
		utils.LogWarn(map[string]interface{}{
			"productId":              productID,
			"lowStockThreshold":      cfg.LowStockThreshold,
			"criticalStockThreshold": cfg.CriticalStockThreshold,
			"outOfStockThreshold":    cfg.OutOfStockThreshold,
		}, "告警阈值顺序异常，将按原始值判定")
	}

	cfg.UpdatedAt = time.Now()

	_, err = collection.ReplaceOne(ctx, bson.M{"_id": cfg.ID}, cfg)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.LogInfo(map[string]interface{}{
		"productId": productID,
		"operator":  user.Username,
	}, "告警配置更新成功")

	utils.SuccessResponse(c, cfg, "告警配置更新成功")
}

// ListAlerts 列出当前命中告警级别的产品，默认按严重程度降序
func (ctrl *AlertController) ListAlerts(c *gin.Context) {
	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit < 1 {
		limit = 20
	}
	tierFilter := c.Query("severity")
	if tierFilter == "" {
		tierFilter = c.Query("tier")
	}
	includeInactive := c.Query("includeInactive") == "true"
	sortBy := c.DefaultQuery("sortBy", "severity")
	sortOrder := c.DefaultQuery("sortOrder", "desc")

	ctx := c.Request.Context()
	configs, err := ctrl.store.Configs(ctx, includeInactive)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	now := time.Now()
	alerts := make([]models.StockAlert, 0)
	for i := range configs {
		cfg := &configs[i]

		inv, err := ctrl.store.InventoryByProduct(ctx, cfg.ProductID)
		if err != nil {
			utils.LogError(err, map[string]interface{}{
				"productId": cfg.ProductID,
			}, "查询库存台账失败，跳过该产品")
			continue
		}
		if inv == nil {
			continue
		}

		tier := service.Classify(inv.CurrentStock, cfg)
		if tier == models.AlertTierNone {
			continue
		}
		if tierFilter != "" && tierFilter != "all" && string(tier) != tierFilter {
			continue
		}

		product, err := ctrl.store.ProductByID(ctx, cfg.ProductID)
		if err != nil {
			product = nil
		}

		alerts = append(alerts, models.StockAlert{
			ProductID:   cfg.ProductID,
			Product:     product,
			Inventory:   inv,
			Config:      cfg,
			Tier:        tier,
			Severity:    tier.Severity(),
			ShouldAlert: service.AlertFlagsFor(cfg, now),
		})
	}

	// 排序字段可选严重程度或当前库存，同级按产品ID稳定排序
	asc := sortOrder == "asc"
	sort.SliceStable(alerts, func(i, j int) bool {
		var less bool
		switch sortBy {
		case "currentStock":
			less = alerts[i].Inventory.CurrentStock < alerts[j].Inventory.CurrentStock
			if alerts[i].Inventory.CurrentStock == alerts[j].Inventory.CurrentStock {
				return alerts[i].ProductID < alerts[j].ProductID
			}
		default:
			ri, rj := tierRank(alerts[i].Tier), tierRank(alerts[j].Tier)
			less = ri < rj
			if ri == rj {
				return alerts[i].ProductID < alerts[j].ProductID
			}
		}
		if asc {
			return less
		}
		return !less
	})

	total := int64(len(alerts))
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	utils.PaginatedResponse(c, alerts[start:end], total, page, limit)
}

// tierRank 告警级别的排序权重
func tierRank(t models.AlertTier) int {
	switch t {
	case models.AlertTierOutOfStock:
		return 3
	case models.AlertTierCritical:
		return 2
	case models.AlertTierLow:
		return 1
	}
	return 0
}

// RunSweep 手动触发一轮告警扫描
func (ctrl *AlertController) RunSweep(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.ErrorResponse(c, err.Error(), http.StatusUnauthorized)
		return
	}
	if !utils.CanManageInventory(user.Role) {
		utils.ErrorResponse(c, "无权触发告警扫描", http.StatusForbidden)
		return
	}

	result, err := ctrl.scheduler.RunSweep(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, result, "告警扫描完成")
}

// GetQueueStatus 查询通知队列状态
func (ctrl *AlertController) GetQueueStatus(c *gin.Context) {
	utils.SuccessResponse(c, ctrl.queue.Status(), "")
}

// EnqueueNotification 手动入队一条通知
func (ctrl *AlertController) EnqueueNotification(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.ErrorResponse(c, err.Error(), http.StatusUnauthorized)
		return
	}

	var req models.EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, "无效的请求参数: "+err.Error(), http.StatusBadRequest)
		return
	}

	if !models.ValidNotificationType(req.Type) {
		utils.HandleError(c, utils.CreateValidationError("不支持的通知类型: "+string(req.Type)))
		return
	}

	id := ctrl.queue.Enqueue(req.Type, req.Data)

	utils.LogInfo(map[string]interface{}{
		"notificationId": id,
		"type":           req.Type,
		"operator":       user.Username,
	}, "手动入队通知")

	utils.SuccessResponse(c, gin.H{"notificationId": id}, "通知已入队", http.StatusAccepted)
}

// SendTestNotification 发送测试通知，用于验证通知链路
func (ctrl *AlertController) SendTestNotification(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.ErrorResponse(c, err.Error(), http.StatusUnauthorized)
		return
	}

	var req struct {
		Recipient string `json:"recipient" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, "无效的请求参数: "+err.Error(), http.StatusBadRequest)
		return
	}

	id := ctrl.queue.Enqueue(models.NotificationTestEmail, map[string]interface{}{
		"recipient": req.Recipient,
		"sentBy":    user.Username,
		"sentAt":    time.Now().Format(time.RFC3339),
	})

	utils.SuccessResponse(c, gin.H{"notificationId": id}, "测试通知已入队", http.StatusAccepted)
}
