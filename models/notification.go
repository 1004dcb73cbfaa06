package models

import (
	"time"
)

// NotificationType 通知类型枚举
type NotificationType string

const (
	NotificationStockAlert        NotificationType = "stock_alert"
	NotificationAlertsSummary     NotificationType = "alerts_summary"
	NotificationChatStarted       NotificationType = "chat_started"
	NotificationTestEmail         NotificationType = "test_email"
	NotificationOrderStatusChange NotificationType = "order_status_change"
)

// ValidNotificationType 检查通知类型是否是队列支持的类型
func ValidNotificationType(t NotificationType) bool {
	switch t {
	case NotificationStockAlert,
		NotificationAlertsSummary,
		NotificationChatStarted,
		NotificationTestEmail,
		NotificationOrderStatusChange:
		return true
	}
	return false
}

// QueueItem 通知队列条目，只存在于进程内存中，进程重启即丢失
type QueueItem struct {
	ID        string                 `json:"id"`
	Type      NotificationType       `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// QueueStatus 通知队列当前状态
type QueueStatus struct {
	Length     int  `json:"length"`
	Processing bool `json:"processing"`
}

// SendResult 外部发送方返回的结果
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// EnqueueRequest 手动入队请求
type EnqueueRequest struct {
	Type NotificationType       `json:"type" binding:"required"`
	Data map[string]interface{} `json:"data"`
}

// SweepResult 一次告警扫描的结果统计
type SweepResult struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
}
