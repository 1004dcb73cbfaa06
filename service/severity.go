package service

import (
	"github.com/BerniceZTT/shop_end/models"
)

// Classify 按严格优先级链对当前库存分级，最严重的级别优先命中，
// 每次调用有且只有一个级别成立。阈值按配置的原始值比较，
// 即使low/critical/outOfStock顺序颠倒也不做调整
func Classify(currentStock int, cfg *models.AlertConfig) models.AlertTier {
	switch {
	case currentStock <= cfg.OutOfStockThreshold:
		return models.AlertTierOutOfStock
	case currentStock <= cfg.CriticalStockThreshold:
		return models.AlertTierCritical
	case currentStock <= cfg.LowStockThreshold:
		return models.AlertTierLow
	default:
		return models.AlertTierNone
	}
}
