package service

import (
	"context"
	"sync"
	"time"

	"github.com/BerniceZTT/shop_end/models"
	"github.com/BerniceZTT/shop_end/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AlertSource 告警扫描所需的数据源
type AlertSource interface {
	ActiveConfigs(ctx context.Context) ([]models.AlertConfig, error)
	InventoryByProduct(ctx context.Context, productID string) (*models.Inventory, error)
	ProductByID(ctx context.Context, id string) (*models.Product, error)
	MarkAlertSent(ctx context.Context, configID primitive.ObjectID, alertType models.AlertType, at time.Time) error
}

// AlertScheduler 告警调度器：周期扫描所有激活的告警配置，
// 命中告警级别且未被限流的产品入队通知。
// 周期触发与手动触发互不互斥，重复告警由限流时间戳自然抑制
type AlertScheduler struct {
	source   AlertSource
	queue    *NotificationQueue
	interval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewAlertScheduler 创建告警调度器，interval非法时回退为5分钟
func NewAlertScheduler(source AlertSource, queue *NotificationQueue, interval time.Duration) *AlertScheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &AlertScheduler{
		source:   source,
		queue:    queue,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start 启动周期扫描协程
func (s *AlertScheduler) Start() {
	utils.LogInfo(map[string]interface{}{
		"interval": s.interval.String(),
	}, "告警调度器已启动")

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.RunSweep(context.Background()); err != nil {
					utils.LogError(err, nil, "周期告警扫描失败")
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// StartDailySummary 启动每日告警汇总协程，每天在指定小时入队一条汇总通知
func (s *AlertScheduler) StartDailySummary(hour int) {
	if hour < 0 || hour > 23 {
		hour = 9
	}
	utils.LogInfo(map[string]interface{}{
		"hour": hour,
	}, "每日告警汇总任务已启动")

	go s.scheduleDailyTaskAt(hour, 0, 0, func() {
		if err := s.EnqueueSummary(context.Background()); err != nil {
			utils.LogError(err, nil, "每日告警汇总失败")
		}
	})
}

// Stop 停止调度器的所有后台协程
func (s *AlertScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		utils.LogInfo(nil, "告警调度器已停止")
	})
}

// RunSweep 扫描一轮所有激活的告警配置。
// 单个产品评估失败只跳过该产品，配置列表本身查询失败才中止整轮扫描
func (s *AlertScheduler) RunSweep(ctx context.Context) (*models.SweepResult, error) {
	configs, err := s.source.ActiveConfigs(ctx)
	if err != nil {
		return nil, err
	}

	result := &models.SweepResult{}
	for i := range configs {
		cfg := &configs[i]
		enqueued, err := s.evaluate(ctx, cfg)
		if err != nil {
			utils.LogError(err, map[string]interface{}{
				"productId": cfg.ProductID,
			}, "产品告警评估失败，跳过")
			result.Skipped++
			continue
		}
		if enqueued {
			result.Sent++
		} else {
			result.Skipped++
		}
	}

	utils.LogInfo(map[string]interface{}{
		"configs": len(configs),
		"sent":    result.Sent,
		"skipped": result.Skipped,
	}, "告警扫描完成")
	return result, nil
}

// evaluate 评估单个产品：分级、限流判定、入队。
// 返回是否入队了告警，限流时间戳在发送成功的回调里才落库
func (s *AlertScheduler) evaluate(ctx context.Context, cfg *models.AlertConfig) (bool, error) {
	inv, err := s.source.InventoryByProduct(ctx, cfg.ProductID)
	if err != nil {
		return false, err
	}
	if inv == nil {
		utils.LogWarn(map[string]interface{}{
			"productId": cfg.ProductID,
		}, "告警配置对应的库存台账不存在，跳过")
		return false, nil
	}

	tier := Classify(inv.CurrentStock, cfg)
	alertType, ok := models.AlertTypeFor(tier)
	if !ok {
		return false, nil
	}
	if !ShouldAlert(alertType, cfg, time.Now()) {
		return false, nil
	}

	payload := s.buildPayload(ctx, cfg, inv, tier)

	configID := cfg.ID
	s.queue.EnqueueWithCallback(models.NotificationStockAlert, payload, func(models.SendResult) {
		if err := s.source.MarkAlertSent(context.Background(), configID, alertType, time.Now()); err != nil {
			utils.LogError(err, map[string]interface{}{
				"productId": cfg.ProductID,
				"alertType": alertType,
			}, "更新告警发送时间失败")
		}
	})
	return true, nil
}

// buildPayload 组装告警通知的结构化数据，产品信息缺失时不阻塞告警
func (s *AlertScheduler) buildPayload(ctx context.Context, cfg *models.AlertConfig, inv *models.Inventory, tier models.AlertTier) map[string]interface{} {
	payload := map[string]interface{}{
		"productId":      cfg.ProductID,
		"tier":           tier,
		"severity":       tier.Severity(),
		"currentStock":   inv.CurrentStock,
		"availableStock": inv.AvailableStock,
		"reservedStock":  inv.ReservedStock,
		"thresholds": map[string]int{
			"lowStock":      cfg.LowStockThreshold,
			"criticalStock": cfg.CriticalStockThreshold,
			"outOfStock":    cfg.OutOfStockThreshold,
		},
	}

	if cfg.EmailAlerts.Enabled && len(cfg.EmailAlerts.Recipients) > 0 {
		payload["recipients"] = cfg.EmailAlerts.Recipients
	}
	if cfg.WebhookAlerts.Enabled && cfg.WebhookAlerts.URL != "" {
		payload["webhookUrl"] = cfg.WebhookAlerts.URL
	}

	product, err := s.source.ProductByID(ctx, cfg.ProductID)
	if err != nil {
		utils.LogWarn(map[string]interface{}{
			"productId": cfg.ProductID,
		}, "查询产品信息失败，告警内容不包含产品详情")
	} else if product != nil {
		payload["productName"] = product.Name
		payload["brand"] = product.Brand
		payload["price"] = product.Price
		payload["imageUrl"] = product.ImageURL
	}

	return payload
}

// EnqueueSummary 汇总当前所有命中告警级别的产品，入队一条告警汇总通知
func (s *AlertScheduler) EnqueueSummary(ctx context.Context) error {
	configs, err := s.source.ActiveConfigs(ctx)
	if err != nil {
		return err
	}

	items := make([]map[string]interface{}, 0)
	counts := map[models.AlertTier]int{}
	for i := range configs {
		cfg := &configs[i]
		inv, err := s.source.InventoryByProduct(ctx, cfg.ProductID)
		if err != nil || inv == nil {
			continue
		}
		tier := Classify(inv.CurrentStock, cfg)
		if tier == models.AlertTierNone {
			continue
		}
		counts[tier]++
		items = append(items, map[string]interface{}{
			"productId":    cfg.ProductID,
			"tier":         tier,
			"severity":     tier.Severity(),
			"currentStock": inv.CurrentStock,
		})
	}

	if len(items) == 0 {
		utils.LogInfo(nil, "当前没有命中告警级别的产品，跳过每日汇总")
		return nil
	}

	s.queue.Enqueue(models.NotificationAlertsSummary, map[string]interface{}{
		"date":       time.Now().Format("2006-01-02"),
		"total":      len(items),
		"outOfStock": counts[models.AlertTierOutOfStock],
		"critical":   counts[models.AlertTierCritical],
		"low":        counts[models.AlertTierLow],
		"items":      items,
	})
	return nil
}

// scheduleDailyTaskAt 每天在指定时间执行任务，直到调度器停止
func (s *AlertScheduler) scheduleDailyTaskAt(hour, min, sec int, task func()) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, min, sec, 0, now.Location())
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-timer.C:
			task()
		case <-s.stop:
			timer.Stop()
			return
		}
	}
}
