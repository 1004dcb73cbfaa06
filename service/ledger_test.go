package service

import (
	"context"
	"sync"
	"testing"

	"github.com/BerniceZTT/shop_end/models"
	"github.com/BerniceZTT/shop_end/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	m.Run()
}

// memoryInventoryStore 内存版库存存储，CAS语义与MongoDB存储一致
type memoryInventoryStore struct {
	mu      sync.Mutex
	items   map[string]models.Inventory
	records []models.InventoryRecord
}

func newMemoryInventoryStore() *memoryInventoryStore {
	return &memoryInventoryStore{items: make(map[string]models.Inventory)}
}

func (s *memoryInventoryStore) put(inv *models.Inventory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[inv.ProductID] = *inv
}

func (s *memoryInventoryStore) Get(ctx context.Context, productID string) (*models.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.items[productID]
	if !ok {
		return nil, nil
	}
	copied := inv
	return &copied, nil
}

func (s *memoryInventoryStore) CompareAndSwap(ctx context.Context, prev, next *models.Inventory) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.items[prev.ProductID]
	if !ok {
		return false, nil
	}
	if current.CurrentStock != prev.CurrentStock ||
		current.ReservedStock != prev.ReservedStock ||
		current.Channels.Physical.Stock != prev.Channels.Physical.Stock ||
		current.Channels.Digital.Stock != prev.Channels.Digital.Stock {
		return false, nil
	}

	s.items[prev.ProductID] = *next
	return true, nil
}

func (s *memoryInventoryStore) AppendRecord(ctx context.Context, rec *models.InventoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *rec)
	return nil
}

func (s *memoryInventoryStore) recordCount(opType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, rec := range s.records {
		if rec.OperationType == opType {
			count++
		}
	}
	return count
}

func newTestLedger(initialStock int) (*LedgerService, *memoryInventoryStore) {
	store := newMemoryInventoryStore()
	store.put(models.NewInventory("p1", initialStock))
	return NewLedgerService(store), store
}

func TestLedgerReserve(t *testing.T) {
	ledger, store := newTestLedger(100)

	snap, err := ledger.Reserve(context.Background(), "p1", 30, "下单", nil)
	require.NoError(t, err)

	assert.Equal(t, 100, snap.CurrentStock)
	assert.Equal(t, 30, snap.ReservedStock)
	assert.Equal(t, 70, snap.AvailableStock)
	assert.Equal(t, 1, store.recordCount(models.OperationReserve))
}

func TestLedgerReserveInsufficient(t *testing.T) {
	ledger, _ := newTestLedger(10)

	_, err := ledger.Reserve(context.Background(), "p1", 20, "", nil)
	require.Error(t, err)

	var apiErr *utils.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", apiErr.ErrorCode)
}

func TestLedgerProductNotFound(t *testing.T) {
	ledger, _ := newTestLedger(10)

	_, err := ledger.Reserve(context.Background(), "missing", 1, "", nil)
	require.Error(t, err)

	var apiErr *utils.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "RESOURCE_NOT_FOUND", apiErr.ErrorCode)
}

func TestLedgerConcurrentReserves(t *testing.T) {
	ledger, store := newTestLedger(100)

	// 两个并发预留60，库存只够一个成功
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = ledger.Reserve(context.Background(), "p1", 60, "", nil)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 1, successes)

	inv, err := store.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 60, inv.ReservedStock)
	assert.Equal(t, 40, inv.AvailableStock)
}

func TestLedgerConcurrentReservesNeverOversell(t *testing.T) {
	ledger, store := newTestLedger(100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ledger.Reserve(context.Background(), "p1", 10, "", nil)
		}()
	}
	wg.Wait()

	inv, err := store.Get(context.Background(), "p1")
	require.NoError(t, err)

	// 无论并发竞争如何，预留量不超过库存
	assert.LessOrEqual(t, inv.ReservedStock, 100)
	assert.GreaterOrEqual(t, inv.AvailableStock, 0)
	assert.Equal(t, 100-inv.ReservedStock, inv.AvailableStock)
	assert.Equal(t, inv.ReservedStock/10, store.recordCount(models.OperationReserve))
}

func TestLedgerSellAndRelease(t *testing.T) {
	ledger, _ := newTestLedger(50)

	_, err := ledger.Reserve(context.Background(), "p1", 20, "", nil)
	require.NoError(t, err)

	snap, err := ledger.Sell(context.Background(), "p1", 30, "发货", nil)
	require.NoError(t, err)
	assert.Equal(t, 20, snap.CurrentStock)
	assert.Equal(t, 0, snap.ReservedStock)

	snap, err = ledger.Release(context.Background(), "p1", 5, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.ReservedStock)
	assert.Equal(t, 20, snap.AvailableStock)
}

func TestLedgerRestockWithOperationID(t *testing.T) {
	ledger, store := newTestLedger(0)

	snap, err := ledger.Restock(context.Background(), "p1", 50, "补货", "op-123", nil)
	require.NoError(t, err)
	assert.Equal(t, 50, snap.CurrentStock)
	assert.Equal(t, models.InventoryStatusActive, snap.Status)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.records, 1)
	assert.Equal(t, "op-123", store.records[0].OperationID)
	assert.Equal(t, 50, store.records[0].Quantity)
}

func TestLedgerReconcile(t *testing.T) {
	ledger, _ := newTestLedger(100)

	// 补货7产生渠道差异
	_, err := ledger.Restock(context.Background(), "p1", 7, "", "", nil)
	require.NoError(t, err)

	inv, err := ledger.Reconcile(context.Background(), "p1", nil)
	require.NoError(t, err)

	assert.False(t, inv.HasChannelDiscrepancy())
	assert.Equal(t, inv.Channels.Physical.Stock, inv.CurrentStock)
	assert.Equal(t, models.SyncStatusSynced, inv.Channels.Physical.SyncStatus)
	assert.Equal(t, models.SyncStatusSynced, inv.Channels.Digital.SyncStatus)
}

func TestLedgerOperatorRecorded(t *testing.T) {
	ledger, store := newTestLedger(100)
	operator := &utils.LoginUser{ID: "u1", Username: "张三", Role: string(models.UserRoleSALES)}

	_, err := ledger.Reserve(context.Background(), "p1", 10, "客户下单", operator)
	require.NoError(t, err)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.records, 1)
	assert.Equal(t, "张三", store.records[0].Operator)
	assert.Equal(t, "u1", store.records[0].OperatorID)
	assert.Equal(t, "客户下单", store.records[0].Remark)
}
