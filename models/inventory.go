package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InventoryStatus 库存状态枚举
type InventoryStatus string

const (
	InventoryStatusActive       InventoryStatus = "active"
	InventoryStatusInactive     InventoryStatus = "inactive"
	InventoryStatusDiscontinued InventoryStatus = "discontinued"
	InventoryStatusOutOfStock   InventoryStatus = "out_of_stock"
)

// SyncStatus 渠道同步状态枚举
type SyncStatus string

const (
	SyncStatusSynced   SyncStatus = "synced"
	SyncStatusPending  SyncStatus = "pending"
	SyncStatusConflict SyncStatus = "conflict"
)

// 库存操作的前置条件错误，由controller映射为API错误
var (
	ErrInsufficientStock = errors.New("可用库存不足")
	ErrInvalidQuantity   = errors.New("操作数量必须大于0")
)

// ChannelState 单个渠道的库存镜像
type ChannelState struct {
	Stock       int        `json:"stock" bson:"stock"`
	Location    string     `json:"location,omitempty" bson:"location,omitempty"`
	Platform    string     `json:"platform,omitempty" bson:"platform,omitempty"`
	LastUpdated time.Time  `json:"lastUpdated" bson:"lastUpdated"`
	LastSync    time.Time  `json:"lastSync" bson:"lastSync"`
	SyncStatus  SyncStatus `json:"syncStatus" bson:"syncStatus"`
}

// InventoryChannels 线下/线上两个渠道
type InventoryChannels struct {
	Physical ChannelState `json:"physical" bson:"physical"`
	Digital  ChannelState `json:"digital" bson:"digital"`
}

// Inventory 产品库存台账，每个产品一条，productId唯一
type Inventory struct {
	ID             primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	ProductID      string             `json:"productId" bson:"productId"`
	CurrentStock   int                `json:"currentStock" bson:"currentStock"`
	MinStock       int                `json:"minStock" bson:"minStock"`
	MaxStock       int                `json:"maxStock" bson:"maxStock"`
	ReservedStock  int                `json:"reservedStock" bson:"reservedStock"`
	AvailableStock int                `json:"availableStock" bson:"availableStock"`
	Channels       InventoryChannels  `json:"channels" bson:"channels"`
	TotalSold      int                `json:"totalSold" bson:"totalSold"`
	LastSold       *time.Time         `json:"lastSold,omitempty" bson:"lastSold,omitempty"`
	LastRestocked  time.Time          `json:"lastRestocked" bson:"lastRestocked"`
	Status         InventoryStatus    `json:"status" bson:"status"`
	Notes          string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// NewInventory 创建产品的初始库存台账，初始库存按60/40拆分到线下/线上渠道
func NewInventory(productID string, initialStock int) *Inventory {
	now := time.Now()
	inv := &Inventory{
		ProductID:     productID,
		CurrentStock:  initialStock,
		Status:        InventoryStatusActive,
		LastRestocked: now,
		CreatedAt:     now,
		Channels: InventoryChannels{
			Physical: ChannelState{
				Location:    "main-warehouse",
				Stock:       initialStock * 60 / 100,
				LastUpdated: now,
				LastSync:    now,
				SyncStatus:  SyncStatusSynced,
			},
			Digital: ChannelState{
				Platform:    "online-store",
				Stock:       initialStock * 40 / 100,
				LastUpdated: now,
				LastSync:    now,
				SyncStatus:  SyncStatusSynced,
			},
		},
	}
	inv.Recalculate(now)
	return inv
}

// DeriveStatus 根据当前库存推导库存状态：
// 库存为0时强制为out_of_stock；从out_of_stock恢复为正库存时回到active；
// 其余情况保留人工设置的状态
func DeriveStatus(currentStock int, prev InventoryStatus) InventoryStatus {
	if currentStock == 0 {
		return InventoryStatusOutOfStock
	}
	if prev == InventoryStatusOutOfStock {
		return InventoryStatusActive
	}
	return prev
}

// Recalculate 重新计算派生字段，每次状态变更的最后一步必须调用
func (inv *Inventory) Recalculate(now time.Time) {
	available := inv.CurrentStock - inv.ReservedStock
	if available < 0 {
		available = 0
	}
	inv.AvailableStock = available
	inv.Status = DeriveStatus(inv.CurrentStock, inv.Status)
	inv.UpdatedAt = now
}

// ApplyReserve 预留库存，可用库存不足时返回ErrInsufficientStock
func (inv *Inventory) ApplyReserve(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if inv.AvailableStock < qty {
		return ErrInsufficientStock
	}
	inv.ReservedStock += qty
	inv.Recalculate(time.Now())
	return nil
}

// ApplyRelease 释放预留，释放数量超过已预留时截断到0，不报错
func (inv *Inventory) ApplyRelease(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	inv.ReservedStock -= qty
	if inv.ReservedStock < 0 {
		inv.ReservedStock = 0
	}
	inv.Recalculate(time.Now())
	return nil
}

// ApplySell 售出库存，只在存在预留时抵扣预留，销售不要求先预留
func (inv *Inventory) ApplySell(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if inv.AvailableStock < qty {
		return ErrInsufficientStock
	}
	inv.CurrentStock -= qty
	if inv.ReservedStock > 0 {
		drained := qty
		if drained > inv.ReservedStock {
			drained = inv.ReservedStock
		}
		inv.ReservedStock -= drained
	}
	inv.TotalSold += qty
	now := time.Now()
	inv.LastSold = &now
	inv.Recalculate(now)
	return nil
}

// ApplyRestock 入库补货，新增数量按60/40拆分到线下/线上渠道（各自向下取整），
// 拆分后渠道镜像偏离台账，标记为pending等待人工对账
func (inv *Inventory) ApplyRestock(qty int, notes string) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	now := time.Now()
	inv.CurrentStock += qty
	inv.LastRestocked = now
	if notes != "" {
		inv.Notes = notes
	}

	inv.Channels.Physical.Stock += qty * 60 / 100
	inv.Channels.Physical.LastUpdated = now
	inv.Channels.Physical.SyncStatus = SyncStatusPending
	inv.Channels.Digital.Stock += qty * 40 / 100
	inv.Channels.Digital.LastUpdated = now
	inv.Channels.Digital.SyncStatus = SyncStatusPending

	inv.Recalculate(now)
	return nil
}

// ApplyReconcile 人工触发的渠道对账：以线下渠道为准，
// 线上渠道和台账总量全部对齐到线下数量
func (inv *Inventory) ApplyReconcile() {
	now := time.Now()
	truth := inv.Channels.Physical.Stock
	inv.Channels.Digital.Stock = truth
	inv.CurrentStock = truth

	inv.Channels.Physical.SyncStatus = SyncStatusSynced
	inv.Channels.Physical.LastUpdated = now
	inv.Channels.Physical.LastSync = now
	inv.Channels.Digital.SyncStatus = SyncStatusSynced
	inv.Channels.Digital.LastUpdated = now
	inv.Channels.Digital.LastSync = now

	inv.Recalculate(now)
}

// HasChannelDiscrepancy 检查两个渠道的库存镜像是否一致
func (inv *Inventory) HasChannelDiscrepancy() bool {
	return inv.Channels.Physical.Stock != inv.Channels.Digital.Stock
}

// ChannelDifference 线下减线上的库存差值
func (inv *Inventory) ChannelDifference() int {
	return inv.Channels.Physical.Stock - inv.Channels.Digital.Stock
}

// Snapshot 库存操作完成后返回给调用方的快照
func (inv *Inventory) Snapshot() StockSnapshot {
	return StockSnapshot{
		CurrentStock:   inv.CurrentStock,
		AvailableStock: inv.AvailableStock,
		ReservedStock:  inv.ReservedStock,
		Status:         inv.Status,
	}
}

// StockSnapshot 库存操作返回的快照
type StockSnapshot struct {
	CurrentStock   int             `json:"currentStock"`
	AvailableStock int             `json:"availableStock"`
	ReservedStock  int             `json:"reservedStock"`
	Status         InventoryStatus `json:"status"`
}

// InventoryRecord 库存操作记录结构
type InventoryRecord struct {
	ID            primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	ProductID     string             `json:"productId" bson:"productId"`
	ProductName   string             `json:"productName" bson:"productName"`
	OperationType string             `json:"operationType" bson:"operationType"`
	Quantity      int                `json:"quantity" bson:"quantity"`
	Remark        string             `json:"remark,omitempty" bson:"remark,omitempty"`
	Operator      string             `json:"operator" bson:"operator"`
	OperatorID    string             `json:"operatorId" bson:"operatorId"`
	OperationTime time.Time          `json:"operationTime" bson:"operationTime"`
	OperationID   string             `json:"operationId,omitempty" bson:"operationId,omitempty"`
}

// 库存操作类型
const (
	OperationReserve   = "reserve"
	OperationRelease   = "release"
	OperationSell      = "sell"
	OperationRestock   = "restock"
	OperationReconcile = "reconcile"
)

// StockOperation 库存操作请求
type StockOperation struct {
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Remark   string `json:"remark"`
}

// RestockOperation 入库补货请求，operationId是调用方提供的幂等键
type RestockOperation struct {
	Quantity    int    `json:"quantity" binding:"required,min=1"`
	Notes       string `json:"notes"`
	OperationID string `json:"operationId"`
}

// InventoryStats 库存统计信息
type InventoryStats struct {
	TotalProducts      int64         `json:"totalProducts"`
	OutOfStockProducts int64         `json:"outOfStockProducts"`
	TotalStock         int64         `json:"totalStock"`
	TotalReserved      int64         `json:"totalReserved"`
	RecentChanges      RecentChanges `json:"recentChanges"`
}

// RecentChanges 最近库存变动
type RecentChanges struct {
	In  int64 `json:"in"`
	Out int64 `json:"out"`
	Net int64 `json:"net"`
}
