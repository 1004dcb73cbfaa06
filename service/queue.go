package service

import (
	"context"
	"sync"
	"time"

	"github.com/BerniceZTT/shop_end/models"
	"github.com/BerniceZTT/shop_end/utils"

	"github.com/google/uuid"
)

// Sender 外部通知发送方，接收模板类型和结构化数据
type Sender interface {
	Send(ctx context.Context, templateType models.NotificationType, payload map[string]interface{}) (*models.SendResult, error)
}

// queueEntry 队列内部条目，回调只在发送成功时触发
type queueEntry struct {
	item      models.QueueItem
	onSuccess func(models.SendResult)
}

// NotificationQueue 进程内通知队列。
// FIFO顺序逐条发送，同一时刻只有一个排空协程在运行（入队时发现已有协程在跑则不再启动）。
// 队列只在内存中，不落盘不重试：发送失败记录日志后继续处理下一条，进程重启队列清空
type NotificationQueue struct {
	mu         sync.Mutex
	entries    []queueEntry
	processing bool
	sender     Sender
}

// NewNotificationQueue 创建通知队列
func NewNotificationQueue(sender Sender) *NotificationQueue {
	return &NotificationQueue{sender: sender}
}

// Enqueue 入队一条通知，返回生成的通知ID
func (q *NotificationQueue) Enqueue(t models.NotificationType, data map[string]interface{}) string {
	return q.EnqueueWithCallback(t, data, nil)
}

// EnqueueWithCallback 入队一条通知，发送成功后触发回调（失败不触发）
func (q *NotificationQueue) EnqueueWithCallback(t models.NotificationType, data map[string]interface{}, onSuccess func(models.SendResult)) string {
	entry := queueEntry{
		item: models.QueueItem{
			ID:        uuid.NewString(),
			Type:      t,
			Data:      data,
			Timestamp: time.Now(),
		},
		onSuccess: onSuccess,
	}

	q.mu.Lock()
	q.entries = append(q.entries, entry)
	start := !q.processing
	if start {
		q.processing = true
	}
	length := len(q.entries)
	q.mu.Unlock()

	utils.LogInfo(map[string]interface{}{
		"notificationId": entry.item.ID,
		"type":           entry.item.Type,
		"queueLength":    length,
	}, "通知已入队")

	if start {
		go q.drain()
	}
	return entry.item.ID
}

// Status 返回队列当前长度和处理状态
func (q *NotificationQueue) Status() models.QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return models.QueueStatus{
		Length:     len(q.entries),
		Processing: q.processing,
	}
}

// drain 排空协程，队列空时退出并清除处理标记
func (q *NotificationQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.entries) == 0 {
			q.processing = false
			q.mu.Unlock()
			return
		}
		entry := q.entries[0]
		q.entries = q.entries[1:]
		q.mu.Unlock()

		q.dispatch(entry)
	}
}

// dispatch 发送单条通知，任何失败都只影响当前条目
func (q *NotificationQueue) dispatch(entry queueEntry) {
	defer func() {
		if r := recover(); r != nil {
			utils.LogError(nil, map[string]interface{}{
				"notificationId": entry.item.ID,
				"type":           entry.item.Type,
				"panic":          r,
			}, "通知发送协程panic")
		}
	}()

	if !models.ValidNotificationType(entry.item.Type) {
		utils.LogWarn(map[string]interface{}{
			"notificationId": entry.item.ID,
			"type":           entry.item.Type,
		}, "未知的通知类型，丢弃")
		return
	}

	result, err := q.sender.Send(context.Background(), entry.item.Type, entry.item.Data)
	if err != nil {
		utils.LogError(err, map[string]interface{}{
			"notificationId": entry.item.ID,
			"type":           entry.item.Type,
		}, "通知发送失败")
		return
	}
	if result == nil || !result.Success {
		errMsg := ""
		if result != nil {
			errMsg = result.Error
		}
		utils.LogWarn(map[string]interface{}{
			"notificationId": entry.item.ID,
			"type":           entry.item.Type,
			"error":          errMsg,
		}, "通知发送方返回失败")
		return
	}

	utils.LogInfo(map[string]interface{}{
		"notificationId": entry.item.ID,
		"type":           entry.item.Type,
		"messageId":      result.MessageID,
	}, "通知发送成功")

	if entry.onSuccess != nil {
		entry.onSuccess(*result)
	}
}
