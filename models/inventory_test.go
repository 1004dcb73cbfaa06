package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInventoryChannelSplit(t *testing.T) {
	inv := NewInventory("p1", 100)

	assert.Equal(t, 100, inv.CurrentStock)
	assert.Equal(t, 60, inv.Channels.Physical.Stock)
	assert.Equal(t, 40, inv.Channels.Digital.Stock)
	assert.Equal(t, 100, inv.AvailableStock)
	assert.Equal(t, InventoryStatusActive, inv.Status)
	assert.Equal(t, SyncStatusSynced, inv.Channels.Physical.SyncStatus)
	assert.Equal(t, SyncStatusSynced, inv.Channels.Digital.SyncStatus)
}

func TestNewInventoryZeroStock(t *testing.T) {
	inv := NewInventory("p1", 0)

	assert.Equal(t, 0, inv.CurrentStock)
	assert.Equal(t, InventoryStatusOutOfStock, inv.Status)
}

func TestDeriveStatus(t *testing.T) {
	// 库存为0强制缺货
	assert.Equal(t, InventoryStatusOutOfStock, DeriveStatus(0, InventoryStatusActive))
	assert.Equal(t, InventoryStatusOutOfStock, DeriveStatus(0, InventoryStatusInactive))

	// 从缺货恢复为active
	assert.Equal(t, InventoryStatusActive, DeriveStatus(5, InventoryStatusOutOfStock))

	// 其余情况保留人工设置的状态
	assert.Equal(t, InventoryStatusInactive, DeriveStatus(5, InventoryStatusInactive))
	assert.Equal(t, InventoryStatusDiscontinued, DeriveStatus(5, InventoryStatusDiscontinued))
	assert.Equal(t, InventoryStatusActive, DeriveStatus(5, InventoryStatusActive))
}

func TestApplyReserveAndRelease(t *testing.T) {
	inv := NewInventory("p1", 100)

	require.NoError(t, inv.ApplyReserve(30))
	assert.Equal(t, 100, inv.CurrentStock)
	assert.Equal(t, 30, inv.ReservedStock)
	assert.Equal(t, 70, inv.AvailableStock)

	// 预留再释放回到原状态
	require.NoError(t, inv.ApplyRelease(30))
	assert.Equal(t, 100, inv.CurrentStock)
	assert.Equal(t, 0, inv.ReservedStock)
	assert.Equal(t, 100, inv.AvailableStock)
}

func TestReserveThenPartialRelease(t *testing.T) {
	inv := NewInventory("p1", 100)

	require.NoError(t, inv.ApplyReserve(20))
	assert.Equal(t, 20, inv.ReservedStock)
	assert.Equal(t, 80, inv.AvailableStock)

	require.NoError(t, inv.ApplyRelease(5))
	assert.Equal(t, 15, inv.ReservedStock)
	assert.Equal(t, 85, inv.AvailableStock)
}

func TestApplyReserveInsufficient(t *testing.T) {
	inv := NewInventory("p1", 10)
	require.NoError(t, inv.ApplyReserve(8))

	err := inv.ApplyReserve(3)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// 失败的操作不改变状态
	assert.Equal(t, 8, inv.ReservedStock)
	assert.Equal(t, 2, inv.AvailableStock)
}

func TestApplyReleaseClampsToZero(t *testing.T) {
	inv := NewInventory("p1", 100)
	require.NoError(t, inv.ApplyReserve(10))

	// 释放超过已预留量时截断到0
	require.NoError(t, inv.ApplyRelease(50))
	assert.Equal(t, 0, inv.ReservedStock)
	assert.Equal(t, 100, inv.AvailableStock)
}

func TestApplySellDrainsReservation(t *testing.T) {
	inv := NewInventory("p1", 100)
	require.NoError(t, inv.ApplyReserve(20))

	require.NoError(t, inv.ApplySell(30))
	assert.Equal(t, 70, inv.CurrentStock)
	// 预留量只抵扣到0，不为负
	assert.Equal(t, 0, inv.ReservedStock)
	assert.Equal(t, 70, inv.AvailableStock)
	assert.Equal(t, 30, inv.TotalSold)
	require.NotNil(t, inv.LastSold)
}

func TestApplySellWithoutReservation(t *testing.T) {
	inv := NewInventory("p1", 50)

	// 销售不要求先预留
	require.NoError(t, inv.ApplySell(10))
	assert.Equal(t, 40, inv.CurrentStock)
	assert.Equal(t, 0, inv.ReservedStock)
	assert.Equal(t, 10, inv.TotalSold)
}

func TestApplySellPartialDrain(t *testing.T) {
	inv := NewInventory("p1", 100)
	require.NoError(t, inv.ApplyReserve(50))

	require.NoError(t, inv.ApplySell(20))
	assert.Equal(t, 80, inv.CurrentStock)
	assert.Equal(t, 30, inv.ReservedStock)
	assert.Equal(t, 50, inv.AvailableStock)
}

func TestApplySellToZeroSetsOutOfStock(t *testing.T) {
	inv := NewInventory("p1", 10)

	require.NoError(t, inv.ApplySell(10))
	assert.Equal(t, 0, inv.CurrentStock)
	assert.Equal(t, InventoryStatusOutOfStock, inv.Status)
}

func TestApplyRestockSplitAndStatus(t *testing.T) {
	inv := NewInventory("p1", 0)
	require.Equal(t, InventoryStatusOutOfStock, inv.Status)
	physical := inv.Channels.Physical.Stock
	digital := inv.Channels.Digital.Stock

	require.NoError(t, inv.ApplyRestock(50, "月度补货"))

	assert.Equal(t, 50, inv.CurrentStock)
	// 补货量按60/40拆分，各自向下取整
	assert.Equal(t, physical+30, inv.Channels.Physical.Stock)
	assert.Equal(t, digital+20, inv.Channels.Digital.Stock)
	assert.Equal(t, SyncStatusPending, inv.Channels.Physical.SyncStatus)
	assert.Equal(t, SyncStatusPending, inv.Channels.Digital.SyncStatus)
	assert.Equal(t, "月度补货", inv.Notes)
	// 缺货恢复为active
	assert.Equal(t, InventoryStatusActive, inv.Status)
}

func TestApplyRestockFloorRounding(t *testing.T) {
	inv := NewInventory("p1", 0)
	physical := inv.Channels.Physical.Stock
	digital := inv.Channels.Digital.Stock

	// 7的60%是4.2，40%是2.8，各自向下取整后有1个未分配到渠道
	require.NoError(t, inv.ApplyRestock(7, ""))
	assert.Equal(t, 7, inv.CurrentStock)
	assert.Equal(t, physical+4, inv.Channels.Physical.Stock)
	assert.Equal(t, digital+2, inv.Channels.Digital.Stock)
}

func TestApplyReconcile(t *testing.T) {
	inv := NewInventory("p1", 100)
	require.NoError(t, inv.ApplyRestock(7, ""))
	require.True(t, inv.HasChannelDiscrepancy() || inv.CurrentStock != inv.Channels.Physical.Stock)

	inv.ApplyReconcile()

	// 以线下渠道为准
	assert.Equal(t, inv.Channels.Physical.Stock, inv.Channels.Digital.Stock)
	assert.Equal(t, inv.Channels.Physical.Stock, inv.CurrentStock)
	assert.False(t, inv.HasChannelDiscrepancy())
	assert.Equal(t, SyncStatusSynced, inv.Channels.Physical.SyncStatus)
	assert.Equal(t, SyncStatusSynced, inv.Channels.Digital.SyncStatus)
}

func TestInvalidQuantity(t *testing.T) {
	inv := NewInventory("p1", 100)

	assert.ErrorIs(t, inv.ApplyReserve(0), ErrInvalidQuantity)
	assert.ErrorIs(t, inv.ApplyReserve(-5), ErrInvalidQuantity)
	assert.ErrorIs(t, inv.ApplyRelease(0), ErrInvalidQuantity)
	assert.ErrorIs(t, inv.ApplySell(-1), ErrInvalidQuantity)
	assert.ErrorIs(t, inv.ApplyRestock(0, ""), ErrInvalidQuantity)
}

func TestRecalculateClampsAvailable(t *testing.T) {
	inv := NewInventory("p1", 10)
	inv.ReservedStock = 20

	// 预留超过库存时可用量截断到0
	inv.Recalculate(time.Now())
	assert.Equal(t, 0, inv.AvailableStock)
}
