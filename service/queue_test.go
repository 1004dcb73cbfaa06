package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BerniceZTT/shop_end/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender 记录发送顺序的测试发送器，按类型控制失败
type fakeSender struct {
	mu       sync.Mutex
	sent     []models.QueueItem
	failType models.NotificationType
	errType  models.NotificationType
	block    chan struct{}
}

func (s *fakeSender) Send(ctx context.Context, t models.NotificationType, payload map[string]interface{}) (*models.SendResult, error) {
	if s.block != nil {
		<-s.block
	}

	s.mu.Lock()
	s.sent = append(s.sent, models.QueueItem{Type: t, Data: payload})
	s.mu.Unlock()

	if t == s.errType {
		return nil, errors.New("发送方连接失败")
	}
	if t == s.failType {
		return &models.SendResult{Success: false, Error: "模板渲染失败"}, nil
	}
	return &models.SendResult{Success: true, MessageID: "msg-1"}, nil
}

func (s *fakeSender) sentTypes() []models.NotificationType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]models.NotificationType, len(s.sent))
	for i, item := range s.sent {
		types[i] = item.Type
	}
	return types
}

func waitIdle(t *testing.T, q *NotificationQueue) {
	t.Helper()
	require.Eventually(t, func() bool {
		status := q.Status()
		return status.Length == 0 && !status.Processing
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueueFIFOOrder(t *testing.T) {
	sender := &fakeSender{}
	q := NewNotificationQueue(sender)

	q.Enqueue(models.NotificationStockAlert, map[string]interface{}{"n": 1})
	q.Enqueue(models.NotificationAlertsSummary, map[string]interface{}{"n": 2})
	q.Enqueue(models.NotificationTestEmail, map[string]interface{}{"n": 3})

	waitIdle(t, q)

	assert.Equal(t, []models.NotificationType{
		models.NotificationStockAlert,
		models.NotificationAlertsSummary,
		models.NotificationTestEmail,
	}, sender.sentTypes())
}

func TestQueueFailureDoesNotStopDrain(t *testing.T) {
	sender := &fakeSender{errType: models.NotificationAlertsSummary}
	q := NewNotificationQueue(sender)

	q.Enqueue(models.NotificationStockAlert, nil)
	q.Enqueue(models.NotificationAlertsSummary, nil)
	q.Enqueue(models.NotificationTestEmail, nil)

	waitIdle(t, q)

	// 失败的条目不重试，后续条目正常发送
	assert.Len(t, sender.sentTypes(), 3)
}

func TestQueueCallbackOnlyOnSuccess(t *testing.T) {
	sender := &fakeSender{failType: models.NotificationAlertsSummary}
	q := NewNotificationQueue(sender)

	var mu sync.Mutex
	succeeded := make([]models.NotificationType, 0)
	callback := func(typ models.NotificationType) func(models.SendResult) {
		return func(models.SendResult) {
			mu.Lock()
			succeeded = append(succeeded, typ)
			mu.Unlock()
		}
	}

	q.EnqueueWithCallback(models.NotificationStockAlert, nil, callback(models.NotificationStockAlert))
	q.EnqueueWithCallback(models.NotificationAlertsSummary, nil, callback(models.NotificationAlertsSummary))

	waitIdle(t, q)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []models.NotificationType{models.NotificationStockAlert}, succeeded)
}

func TestQueueUnknownTypeDropped(t *testing.T) {
	sender := &fakeSender{}
	q := NewNotificationQueue(sender)

	q.Enqueue(models.NotificationType("unknown_type"), nil)
	q.Enqueue(models.NotificationStockAlert, nil)

	waitIdle(t, q)

	// 未知类型直接丢弃，不会到达发送方
	assert.Equal(t, []models.NotificationType{models.NotificationStockAlert}, sender.sentTypes())
}

func TestQueueSingleFlight(t *testing.T) {
	sender := &fakeSender{block: make(chan struct{})}
	q := NewNotificationQueue(sender)

	q.Enqueue(models.NotificationStockAlert, nil)
	q.Enqueue(models.NotificationTestEmail, nil)

	// 发送方阻塞期间，队列处于处理中且剩余条目在排队
	require.Eventually(t, func() bool {
		return q.Status().Processing
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, q.Status().Length)

	close(sender.block)
	waitIdle(t, q)
	assert.Len(t, sender.sentTypes(), 2)
}

func TestQueueIDsUnique(t *testing.T) {
	sender := &fakeSender{}
	q := NewNotificationQueue(sender)

	id1 := q.Enqueue(models.NotificationStockAlert, nil)
	id2 := q.Enqueue(models.NotificationStockAlert, nil)

	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2)
	waitIdle(t, q)
}
