package service

import (
	"time"

	"github.com/BerniceZTT/shop_end/models"
)

// ShouldAlert 判断某类型告警当前是否允许发送。
// 纯判定函数，不修改lastAlertsSent，发送时间由发送成功后的回调落库。
// 规则：至少一个通道启用、该类型在任一启用通道上打开、
// 且距上次发送已满频率窗口（immediate不限流，首次发送不限流）
func ShouldAlert(alertType models.AlertType, cfg *models.AlertConfig, now time.Time) bool {
	if !cfg.HasEnabledChannel() {
		return false
	}
	if !cfg.TypeEnabled(alertType) {
		return false
	}

	last := cfg.LastAlertsSent.Get(alertType)
	if last == nil {
		return true
	}

	window, limited := cfg.AlertFrequency.Window()
	if !limited {
		return true
	}
	return now.Sub(*last) >= window
}

// AlertFlagsFor 计算各告警类型当前的可发送状态，用于告警列表展示
func AlertFlagsFor(cfg *models.AlertConfig, now time.Time) models.AlertFlags {
	return models.AlertFlags{
		LowStock:      ShouldAlert(models.AlertTypeLowStock, cfg, now),
		CriticalStock: ShouldAlert(models.AlertTypeCriticalStock, cfg, now),
		OutOfStock:    ShouldAlert(models.AlertTypeOutOfStock, cfg, now),
	}
}
