package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultAlertConfig(t *testing.T) {
	cfg := NewDefaultAlertConfig("p1")

	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.Equal(t, 5, cfg.CriticalStockThreshold)
	assert.Equal(t, 0, cfg.OutOfStockThreshold)
	assert.True(t, cfg.AppAlerts.Enabled)
	assert.Equal(t, AlertFrequencyDaily, cfg.AlertFrequency)
	assert.Equal(t, AlertConfigStatusActive, cfg.Status)
	assert.True(t, cfg.HasEnabledChannel())
	assert.True(t, cfg.ThresholdsOrdered())
}

func TestAlertTypeFor(t *testing.T) {
	typ, ok := AlertTypeFor(AlertTierLow)
	assert.True(t, ok)
	assert.Equal(t, AlertTypeLowStock, typ)

	typ, ok = AlertTypeFor(AlertTierOutOfStock)
	assert.True(t, ok)
	assert.Equal(t, AlertTypeOutOfStock, typ)

	_, ok = AlertTypeFor(AlertTierNone)
	assert.False(t, ok)
}

func TestAlertFrequencyWindow(t *testing.T) {
	w, limited := AlertFrequencyHourly.Window()
	assert.True(t, limited)
	assert.Equal(t, time.Hour, w)

	w, limited = AlertFrequencyDaily.Window()
	assert.True(t, limited)
	assert.Equal(t, 24*time.Hour, w)

	w, limited = AlertFrequencyWeekly.Window()
	assert.True(t, limited)
	assert.Equal(t, 7*24*time.Hour, w)

	_, limited = AlertFrequencyImmediate.Window()
	assert.False(t, limited)
}

func TestLastAlertsSentGetSet(t *testing.T) {
	var last LastAlertsSent
	assert.Nil(t, last.Get(AlertTypeLowStock))

	now := time.Now()
	last.Set(AlertTypeLowStock, now)
	if assert.NotNil(t, last.Get(AlertTypeLowStock)) {
		assert.Equal(t, now, *last.Get(AlertTypeLowStock))
	}
	assert.Nil(t, last.Get(AlertTypeCriticalStock))
}

func TestThresholdsOrdered(t *testing.T) {
	cfg := NewDefaultAlertConfig("p1")
	assert.True(t, cfg.ThresholdsOrdered())

	cfg.CriticalStockThreshold = 20
	assert.False(t, cfg.ThresholdsOrdered())
}
