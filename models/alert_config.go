package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AlertTier 告警级别，按严重程度从高到低：outOfStock > critical > low > none
type AlertTier string

const (
	AlertTierNone       AlertTier = "none"
	AlertTierLow        AlertTier = "low"
	AlertTierCritical   AlertTier = "critical"
	AlertTierOutOfStock AlertTier = "outOfStock"
)

// Severity 告警级别对应的严重程度标签
func (t AlertTier) Severity() string {
	switch t {
	case AlertTierOutOfStock:
		return "critical"
	case AlertTierCritical:
		return "error"
	case AlertTierLow:
		return "warning"
	default:
		return "info"
	}
}

// AlertType 告警类型，同时作为lastAlertsSent的key
type AlertType string

const (
	AlertTypeLowStock      AlertType = "lowStock"
	AlertTypeCriticalStock AlertType = "criticalStock"
	AlertTypeOutOfStock    AlertType = "outOfStock"
)

// AlertTypeFor 告警级别对应的告警类型，none级别没有告警类型
func AlertTypeFor(tier AlertTier) (AlertType, bool) {
	switch tier {
	case AlertTierLow:
		return AlertTypeLowStock, true
	case AlertTierCritical:
		return AlertTypeCriticalStock, true
	case AlertTierOutOfStock:
		return AlertTypeOutOfStock, true
	}
	return "", false
}

// AlertFrequency 告警频率枚举
type AlertFrequency string

const (
	AlertFrequencyImmediate AlertFrequency = "immediate"
	AlertFrequencyHourly    AlertFrequency = "hourly"
	AlertFrequencyDaily     AlertFrequency = "daily"
	AlertFrequencyWeekly    AlertFrequency = "weekly"
)

// Window 告警频率对应的最小间隔，immediate没有间隔限制
func (f AlertFrequency) Window() (time.Duration, bool) {
	switch f {
	case AlertFrequencyHourly:
		return time.Hour, true
	case AlertFrequencyDaily:
		return 24 * time.Hour, true
	case AlertFrequencyWeekly:
		return 7 * 24 * time.Hour, true
	}
	return 0, false
}

// AlertConfigStatus 告警配置状态枚举
type AlertConfigStatus string

const (
	AlertConfigStatusActive    AlertConfigStatus = "active"
	AlertConfigStatusInactive  AlertConfigStatus = "inactive"
	AlertConfigStatusSuspended AlertConfigStatus = "suspended"
)

// EmailAlertSettings 邮件告警通道配置
type EmailAlertSettings struct {
	Enabled       bool     `json:"enabled" bson:"enabled"`
	LowStock      bool     `json:"lowStock" bson:"lowStock"`
	CriticalStock bool     `json:"criticalStock" bson:"criticalStock"`
	OutOfStock    bool     `json:"outOfStock" bson:"outOfStock"`
	Recipients    []string `json:"recipients,omitempty" bson:"recipients,omitempty"`
}

// AppAlertSettings 应用内告警通道配置
type AppAlertSettings struct {
	Enabled       bool `json:"enabled" bson:"enabled"`
	LowStock      bool `json:"lowStock" bson:"lowStock"`
	CriticalStock bool `json:"criticalStock" bson:"criticalStock"`
	OutOfStock    bool `json:"outOfStock" bson:"outOfStock"`
}

// WebhookAlertSettings webhook告警通道配置
type WebhookAlertSettings struct {
	Enabled       bool   `json:"enabled" bson:"enabled"`
	LowStock      bool   `json:"lowStock" bson:"lowStock"`
	CriticalStock bool   `json:"criticalStock" bson:"criticalStock"`
	OutOfStock    bool   `json:"outOfStock" bson:"outOfStock"`
	URL           string `json:"url,omitempty" bson:"url,omitempty"`
}

// LastAlertsSent 各类型告警最近一次发送时间
type LastAlertsSent struct {
	LowStock      *time.Time `json:"lowStock,omitempty" bson:"lowStock,omitempty"`
	CriticalStock *time.Time `json:"criticalStock,omitempty" bson:"criticalStock,omitempty"`
	OutOfStock    *time.Time `json:"outOfStock,omitempty" bson:"outOfStock,omitempty"`
}

// Get 返回指定告警类型的最近发送时间
func (l *LastAlertsSent) Get(t AlertType) *time.Time {
	switch t {
	case AlertTypeLowStock:
		return l.LowStock
	case AlertTypeCriticalStock:
		return l.CriticalStock
	case AlertTypeOutOfStock:
		return l.OutOfStock
	}
	return nil
}

// Set 更新指定告警类型的最近发送时间
func (l *LastAlertsSent) Set(t AlertType, at time.Time) {
	switch t {
	case AlertTypeLowStock:
		l.LowStock = &at
	case AlertTypeCriticalStock:
		l.CriticalStock = &at
	case AlertTypeOutOfStock:
		l.OutOfStock = &at
	}
}

// AutoRestockSettings 自动补货配置（仅记录，本系统不执行补货）
type AutoRestockSettings struct {
	Enabled  bool   `json:"enabled" bson:"enabled"`
	Quantity int    `json:"quantity" bson:"quantity"`
	Supplier string `json:"supplier,omitempty" bson:"supplier,omitempty"`
}

// AlertConfig 产品告警配置，每个产品一条，productId唯一
type AlertConfig struct {
	ID                     primitive.ObjectID   `json:"_id,omitempty" bson:"_id,omitempty"`
	ProductID              string               `json:"productId" bson:"productId"`
	LowStockThreshold      int                  `json:"lowStockThreshold" bson:"lowStockThreshold"`
	CriticalStockThreshold int                  `json:"criticalStockThreshold" bson:"criticalStockThreshold"`
	OutOfStockThreshold    int                  `json:"outOfStockThreshold" bson:"outOfStockThreshold"`
	EmailAlerts            EmailAlertSettings   `json:"emailAlerts" bson:"emailAlerts"`
	AppAlerts              AppAlertSettings     `json:"appAlerts" bson:"appAlerts"`
	WebhookAlerts          WebhookAlertSettings `json:"webhookAlerts" bson:"webhookAlerts"`
	AlertFrequency         AlertFrequency       `json:"alertFrequency" bson:"alertFrequency"`
	LastAlertsSent         LastAlertsSent       `json:"lastAlertsSent" bson:"lastAlertsSent"`
	AutoRestock            AutoRestockSettings  `json:"autoRestock" bson:"autoRestock"`
	Status                 AlertConfigStatus    `json:"status" bson:"status"`
	CreatedAt              time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt              time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// NewDefaultAlertConfig 产品上架时创建的默认告警配置
func NewDefaultAlertConfig(productID string) *AlertConfig {
	now := time.Now()
	return &AlertConfig{
		ProductID:              productID,
		LowStockThreshold:      10,
		CriticalStockThreshold: 5,
		OutOfStockThreshold:    0,
		AppAlerts: AppAlertSettings{
			Enabled:       true,
			LowStock:      true,
			CriticalStock: true,
			OutOfStock:    true,
		},
		AlertFrequency: AlertFrequencyDaily,
		Status:         AlertConfigStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// HasEnabledChannel 是否至少启用了一个通知通道
func (c *AlertConfig) HasEnabledChannel() bool {
	return c.EmailAlerts.Enabled || c.AppAlerts.Enabled || c.WebhookAlerts.Enabled
}

// TypeEnabled 指定告警类型是否在任一已启用通道上打开
func (c *AlertConfig) TypeEnabled(t AlertType) bool {
	if c.EmailAlerts.Enabled && emailTypeEnabled(&c.EmailAlerts, t) {
		return true
	}
	if c.AppAlerts.Enabled && appTypeEnabled(&c.AppAlerts, t) {
		return true
	}
	if c.WebhookAlerts.Enabled && webhookTypeEnabled(&c.WebhookAlerts, t) {
		return true
	}
	return false
}

// ThresholdsOrdered 检查阈值是否满足low >= critical >= outOfStock的预期顺序，
// 不满足时只告警不拒绝（告警判定始终按原始阈值的优先级链计算）
func (c *AlertConfig) ThresholdsOrdered() bool {
	return c.LowStockThreshold >= c.CriticalStockThreshold &&
		c.CriticalStockThreshold >= c.OutOfStockThreshold
}

func emailTypeEnabled(s *EmailAlertSettings, t AlertType) bool {
	switch t {
	case AlertTypeLowStock:
		return s.LowStock
	case AlertTypeCriticalStock:
		return s.CriticalStock
	case AlertTypeOutOfStock:
		return s.OutOfStock
	}
	return false
}

func appTypeEnabled(s *AppAlertSettings, t AlertType) bool {
	switch t {
	case AlertTypeLowStock:
		return s.LowStock
	case AlertTypeCriticalStock:
		return s.CriticalStock
	case AlertTypeOutOfStock:
		return s.OutOfStock
	}
	return false
}

func webhookTypeEnabled(s *WebhookAlertSettings, t AlertType) bool {
	switch t {
	case AlertTypeLowStock:
		return s.LowStock
	case AlertTypeCriticalStock:
		return s.CriticalStock
	case AlertTypeOutOfStock:
		return s.OutOfStock
	}
	return false
}

// UpdateAlertConfigRequest 告警配置更新请求，nil字段保持原值
type UpdateAlertConfigRequest struct {
	LowStockThreshold      *int                  `json:"lowStockThreshold" binding:"omitempty,min=0"`
	CriticalStockThreshold *int                  `json:"criticalStockThreshold" binding:"omitempty,min=0"`
	OutOfStockThreshold    *int                  `json:"outOfStockThreshold" binding:"omitempty,min=0"`
	EmailAlerts            *EmailAlertSettings   `json:"emailAlerts"`
	AppAlerts              *AppAlertSettings     `json:"appAlerts"`
	WebhookAlerts          *WebhookAlertSettings `json:"webhookAlerts"`
	AlertFrequency         *AlertFrequency       `json:"alertFrequency" binding:"omitempty,oneof=immediate hourly daily weekly"`
	AutoRestock            *AutoRestockSettings  `json:"autoRestock"`
	Status                 *AlertConfigStatus    `json:"status" binding:"omitempty,oneof=active inactive suspended"`
}

// AlertFlags listAlerts返回的各告警类型当前是否可发送
type AlertFlags struct {
	LowStock      bool `json:"lowStock"`
	CriticalStock bool `json:"criticalStock"`
	OutOfStock    bool `json:"outOfStock"`
}

// StockAlert listAlerts返回的告警记录
type StockAlert struct {
	ProductID   string       `json:"productId"`
	Product     *Product     `json:"product,omitempty"`
	Inventory   *Inventory   `json:"inventory"`
	Config      *AlertConfig `json:"config"`
	Tier        AlertTier    `json:"tier"`
	Severity    string       `json:"severity"`
	ShouldAlert AlertFlags   `json:"shouldAlert"`
}
