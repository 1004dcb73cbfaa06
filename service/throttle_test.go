package service

import (
	"testing"
	"time"

	"github.com/BerniceZTT/shop_end/models"

	"github.com/stretchr/testify/assert"
)

func throttleConfig(freq models.AlertFrequency) *models.AlertConfig {
	return &models.AlertConfig{
		ProductID: "p1",
		AppAlerts: models.AppAlertSettings{
			Enabled:       true,
			LowStock:      true,
			CriticalStock: true,
			OutOfStock:    true,
		},
		AlertFrequency: freq,
	}
}

func TestShouldAlertFirstSend(t *testing.T) {
	cfg := throttleConfig(models.AlertFrequencyDaily)

	// 从未发送过的类型不受限流
	assert.True(t, ShouldAlert(models.AlertTypeLowStock, cfg, time.Now()))
}

func TestShouldAlertHourlyWindow(t *testing.T) {
	cfg := throttleConfig(models.AlertFrequencyHourly)
	now := time.Now()

	// 59分钟前发送过，不满1小时
	cfg.LastAlertsSent.Set(models.AlertTypeLowStock, now.Add(-59*time.Minute))
	assert.False(t, ShouldAlert(models.AlertTypeLowStock, cfg, now))

	// 61分钟前发送过，已满窗口
	cfg.LastAlertsSent.Set(models.AlertTypeLowStock, now.Add(-61*time.Minute))
	assert.True(t, ShouldAlert(models.AlertTypeLowStock, cfg, now))
}

func TestShouldAlertDailyAndWeeklyWindows(t *testing.T) {
	now := time.Now()

	daily := throttleConfig(models.AlertFrequencyDaily)
	daily.LastAlertsSent.Set(models.AlertTypeOutOfStock, now.Add(-23*time.Hour))
	assert.False(t, ShouldAlert(models.AlertTypeOutOfStock, daily, now))
	daily.LastAlertsSent.Set(models.AlertTypeOutOfStock, now.Add(-25*time.Hour))
	assert.True(t, ShouldAlert(models.AlertTypeOutOfStock, daily, now))

	weekly := throttleConfig(models.AlertFrequencyWeekly)
	weekly.LastAlertsSent.Set(models.AlertTypeCriticalStock, now.Add(-6*24*time.Hour))
	assert.False(t, ShouldAlert(models.AlertTypeCriticalStock, weekly, now))
	weekly.LastAlertsSent.Set(models.AlertTypeCriticalStock, now.Add(-8*24*time.Hour))
	assert.True(t, ShouldAlert(models.AlertTypeCriticalStock, weekly, now))
}

func TestShouldAlertImmediateNeverThrottled(t *testing.T) {
	cfg := throttleConfig(models.AlertFrequencyImmediate)
	now := time.Now()

	cfg.LastAlertsSent.Set(models.AlertTypeLowStock, now.Add(-time.Second))
	assert.True(t, ShouldAlert(models.AlertTypeLowStock, cfg, now))
}

func TestShouldAlertNoEnabledChannel(t *testing.T) {
	cfg := throttleConfig(models.AlertFrequencyDaily)
	cfg.AppAlerts.Enabled = false

	assert.False(t, ShouldAlert(models.AlertTypeLowStock, cfg, time.Now()))
}

func TestShouldAlertTypeDisabledOnAllChannels(t *testing.T) {
	cfg := throttleConfig(models.AlertFrequencyDaily)
	cfg.AppAlerts.LowStock = false

	assert.False(t, ShouldAlert(models.AlertTypeLowStock, cfg, time.Now()))
	// 其它类型不受影响
	assert.True(t, ShouldAlert(models.AlertTypeOutOfStock, cfg, time.Now()))
}

func TestShouldAlertTypeEnabledOnSecondChannel(t *testing.T) {
	cfg := throttleConfig(models.AlertFrequencyDaily)
	cfg.AppAlerts.LowStock = false
	cfg.WebhookAlerts = models.WebhookAlertSettings{
		Enabled:  true,
		LowStock: true,
		URL:      "https://example.com/hook",
	}

	// 任一启用通道上打开即可发送
	assert.True(t, ShouldAlert(models.AlertTypeLowStock, cfg, time.Now()))
}

func TestAlertFlagsFor(t *testing.T) {
	cfg := throttleConfig(models.AlertFrequencyHourly)
	now := time.Now()
	cfg.LastAlertsSent.Set(models.AlertTypeLowStock, now.Add(-10*time.Minute))

	flags := AlertFlagsFor(cfg, now)
	assert.False(t, flags.LowStock)
	assert.True(t, flags.CriticalStock)
	assert.True(t, flags.OutOfStock)
}
