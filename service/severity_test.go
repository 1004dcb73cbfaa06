package service

import (
	"testing"

	"github.com/BerniceZTT/shop_end/models"

	"github.com/stretchr/testify/assert"
)

func testConfig(low, critical, out int) *models.AlertConfig {
	return &models.AlertConfig{
		ProductID:              "p1",
		LowStockThreshold:      low,
		CriticalStockThreshold: critical,
		OutOfStockThreshold:    out,
	}
}

func TestClassifyPriorityChain(t *testing.T) {
	cfg := testConfig(10, 5, 0)

	cases := []struct {
		stock int
		want  models.AlertTier
	}{
		{15, models.AlertTierNone},
		{11, models.AlertTierNone},
		{10, models.AlertTierLow},
		{8, models.AlertTierLow},
		{6, models.AlertTierLow},
		{5, models.AlertTierCritical},
		{3, models.AlertTierCritical},
		{1, models.AlertTierCritical},
		{0, models.AlertTierOutOfStock},
		{-1, models.AlertTierOutOfStock},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.stock, cfg), "stock=%d", tc.stock)
	}
}

func TestClassifyEqualThresholds(t *testing.T) {
	// 阈值相等时高严重级别优先
	cfg := testConfig(5, 5, 5)

	assert.Equal(t, models.AlertTierOutOfStock, Classify(5, cfg))
	assert.Equal(t, models.AlertTierNone, Classify(6, cfg))
}

func TestClassifyInvertedThresholds(t *testing.T) {
	// 顺序颠倒的阈值按原始值生效，不做调整
	cfg := testConfig(3, 5, 0)

	assert.Equal(t, models.AlertTierCritical, Classify(4, cfg))
	assert.Equal(t, models.AlertTierCritical, Classify(3, cfg))
	assert.Equal(t, models.AlertTierNone, Classify(6, cfg))
}

func TestSeverityLabels(t *testing.T) {
	assert.Equal(t, "critical", models.AlertTierOutOfStock.Severity())
	assert.Equal(t, "error", models.AlertTierCritical.Severity())
	assert.Equal(t, "warning", models.AlertTierLow.Severity())
	assert.Equal(t, "info", models.AlertTierNone.Severity())
}
