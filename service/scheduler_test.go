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

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeAlertSource 告警扫描的测试数据源
type fakeAlertSource struct {
	mu          sync.Mutex
	configs     []models.AlertConfig
	inventories map[string]*models.Inventory
	products    map[string]*models.Product
	failFor     map[string]bool
	marked      []models.AlertType
}

func newFakeAlertSource() *fakeAlertSource {
	return &fakeAlertSource{
		inventories: make(map[string]*models.Inventory),
		products:    make(map[string]*models.Product),
		failFor:     make(map[string]bool),
	}
}

func (s *fakeAlertSource) addProduct(productID string, currentStock int, cfg models.AlertConfig) {
	cfg.ID = primitive.NewObjectID()
	cfg.ProductID = productID
	s.configs = append(s.configs, cfg)

	inv := models.NewInventory(productID, currentStock)
	s.inventories[productID] = inv
}

func (s *fakeAlertSource) ActiveConfigs(ctx context.Context) ([]models.AlertConfig, error) {
	return s.configs, nil
}

func (s *fakeAlertSource) InventoryByProduct(ctx context.Context, productID string) (*models.Inventory, error) {
	if s.failFor[productID] {
		return nil, errors.New("数据库查询失败")
	}
	return s.inventories[productID], nil
}

func (s *fakeAlertSource) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.products[id], nil
}

func (s *fakeAlertSource) MarkAlertSent(ctx context.Context, configID primitive.ObjectID, alertType models.AlertType, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, alertType)
	return nil
}

func (s *fakeAlertSource) markedTypes() []models.AlertType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AlertType(nil), s.marked...)
}

func alertingConfig() models.AlertConfig {
	return models.AlertConfig{
		LowStockThreshold:      10,
		CriticalStockThreshold: 5,
		OutOfStockThreshold:    0,
		AppAlerts: models.AppAlertSettings{
			Enabled:       true,
			LowStock:      true,
			CriticalStock: true,
			OutOfStock:    true,
		},
		AlertFrequency: models.AlertFrequencyDaily,
		Status:         models.AlertConfigStatusActive,
	}
}

func newTestScheduler(source *fakeAlertSource) (*AlertScheduler, *fakeSender, *NotificationQueue) {
	sender := &fakeSender{}
	queue := NewNotificationQueue(sender)
	return NewAlertScheduler(source, queue, time.Minute), sender, queue
}

func TestRunSweepCounts(t *testing.T) {
	source := newFakeAlertSource()
	source.addProduct("low", 8, alertingConfig())
	source.addProduct("out", 0, alertingConfig())
	source.addProduct("healthy", 50, alertingConfig())

	scheduler, sender, queue := newTestScheduler(source)

	result, err := scheduler.RunSweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Skipped)

	waitIdle(t, queue)
	assert.Len(t, sender.sentTypes(), 2)
	for _, typ := range sender.sentTypes() {
		assert.Equal(t, models.NotificationStockAlert, typ)
	}
}

func TestRunSweepThrottledProductSkipped(t *testing.T) {
	source := newFakeAlertSource()
	cfg := alertingConfig()
	cfg.LastAlertsSent.Set(models.AlertTypeLowStock, time.Now().Add(-time.Hour))
	source.addProduct("low", 8, cfg)

	scheduler, _, _ := newTestScheduler(source)

	result, err := scheduler.RunSweep(context.Background())
	require.NoError(t, err)

	// daily频率下1小时前发过的告警被限流
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 1, result.Skipped)
}

func TestRunSweepMissingInventorySkipped(t *testing.T) {
	source := newFakeAlertSource()
	source.addProduct("low", 8, alertingConfig())

	// 配置存在但台账缺失的产品
	orphan := alertingConfig()
	orphan.ID = primitive.NewObjectID()
	orphan.ProductID = "orphan"
	source.configs = append(source.configs, orphan)

	scheduler, _, queue := newTestScheduler(source)

	result, err := scheduler.RunSweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Skipped)
	waitIdle(t, queue)
}

func TestRunSweepPerProductErrorIsolated(t *testing.T) {
	source := newFakeAlertSource()
	source.addProduct("broken", 0, alertingConfig())
	source.addProduct("low", 8, alertingConfig())
	source.failFor["broken"] = true

	scheduler, _, queue := newTestScheduler(source)

	result, err := scheduler.RunSweep(context.Background())
	require.NoError(t, err)

	// 单个产品查询失败不影响其它产品
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Skipped)
	waitIdle(t, queue)
}

func TestRunSweepMarksAlertSentAfterDelivery(t *testing.T) {
	source := newFakeAlertSource()
	source.addProduct("out", 0, alertingConfig())

	scheduler, _, queue := newTestScheduler(source)

	_, err := scheduler.RunSweep(context.Background())
	require.NoError(t, err)

	waitIdle(t, queue)
	require.Eventually(t, func() bool {
		return len(source.markedTypes()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, models.AlertTypeOutOfStock, source.markedTypes()[0])
}

func TestRunSweepNoMarkWhenSendFails(t *testing.T) {
	source := newFakeAlertSource()
	source.addProduct("out", 0, alertingConfig())

	sender := &fakeSender{failType: models.NotificationStockAlert}
	queue := NewNotificationQueue(sender)
	scheduler := NewAlertScheduler(source, queue, time.Minute)

	result, err := scheduler.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)

	waitIdle(t, queue)
	// 发送失败时不更新限流时间戳，下一轮可以重发
	assert.Empty(t, source.markedTypes())
}

func TestRunSweepPayloadContents(t *testing.T) {
	source := newFakeAlertSource()
	source.addProduct("out", 0, alertingConfig())
	source.products["out"] = &models.Product{Name: "无线耳机", Brand: "Acme", Price: 199}

	scheduler, sender, queue := newTestScheduler(source)

	_, err := scheduler.RunSweep(context.Background())
	require.NoError(t, err)
	waitIdle(t, queue)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.sent, 1)
	payload := sender.sent[0].Data
	assert.Equal(t, "out", payload["productId"])
	assert.Equal(t, models.AlertTierOutOfStock, payload["tier"])
	assert.Equal(t, "critical", payload["severity"])
	assert.Equal(t, "无线耳机", payload["productName"])
}

func TestEnqueueSummary(t *testing.T) {
	source := newFakeAlertSource()
	source.addProduct("low", 8, alertingConfig())
	source.addProduct("out", 0, alertingConfig())
	source.addProduct("healthy", 50, alertingConfig())

	scheduler, sender, queue := newTestScheduler(source)

	require.NoError(t, scheduler.EnqueueSummary(context.Background()))
	waitIdle(t, queue)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.sent, 1)
	assert.Equal(t, models.NotificationAlertsSummary, sender.sent[0].Type)
	assert.Equal(t, 2, sender.sent[0].Data["total"])
	assert.Equal(t, 1, sender.sent[0].Data["outOfStock"])
	assert.Equal(t, 1, sender.sent[0].Data["low"])
}

func TestEnqueueSummaryNoAlerts(t *testing.T) {
	source := newFakeAlertSource()
	source.addProduct("healthy", 50, alertingConfig())

	scheduler, sender, queue := newTestScheduler(source)

	require.NoError(t, scheduler.EnqueueSummary(context.Background()))
	waitIdle(t, queue)

	// 没有告警时不入队汇总
	assert.Empty(t, sender.sentTypes())
}
