package service

import (
	"context"
	"errors"
	"time"

	"github.com/BerniceZTT/shop_end/models"
	"github.com/BerniceZTT/shop_end/utils"
)

// 台账不存在时的资源名，用于404错误消息
const ledgerResourceName = "产品库存台账"

// CAS冲突时的最大重试次数
const maxCASRetries = 5

// InventoryStore 库存台账存储接口。
// CompareAndSwap要求：只有库存字段自prev读取以来未变化时才写入next并返回true，
// 返回false表示存在并发修改，调用方需要重读重试
type InventoryStore interface {
	Get(ctx context.Context, productID string) (*models.Inventory, error)
	CompareAndSwap(ctx context.Context, prev, next *models.Inventory) (bool, error)
	AppendRecord(ctx context.Context, rec *models.InventoryRecord) error
}

// LedgerService 库存台账服务，所有库存变更的唯一入口。
// 每个操作都是 读取 -> 内存状态转换 -> 条件写入 的循环，
// 并发冲突时重读重试，前置条件（可用库存充足）在每轮都基于最新读取的状态判定
type LedgerService struct {
	store InventoryStore
}

// NewLedgerService 创建库存台账服务
func NewLedgerService(store InventoryStore) *LedgerService {
	return &LedgerService{store: store}
}

// Get 查询产品库存台账，不存在时返回404错误
func (s *LedgerService) Get(ctx context.Context, productID string) (*models.Inventory, error) {
	inv, err := s.store.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, utils.CreateNotFoundError(ledgerResourceName)
	}
	return inv, nil
}

// Reserve 预留库存，下单时调用
func (s *LedgerService) Reserve(ctx context.Context, productID string, qty int, remark string, operator *utils.LoginUser) (*models.StockSnapshot, error) {
	return s.mutate(ctx, productID, models.OperationReserve, qty, remark, operator,
		func(inv *models.Inventory) error {
			return inv.ApplyReserve(qty)
		})
}

// Release 释放预留，取消订单时调用，释放量超过已预留时截断不报错
func (s *LedgerService) Release(ctx context.Context, productID string, qty int, remark string, operator *utils.LoginUser) (*models.StockSnapshot, error) {
	return s.mutate(ctx, productID, models.OperationRelease, qty, remark, operator,
		func(inv *models.Inventory) error {
			return inv.ApplyRelease(qty)
		})
}

// Sell 售出库存，发货时调用
func (s *LedgerService) Sell(ctx context.Context, productID string, qty int, remark string, operator *utils.LoginUser) (*models.StockSnapshot, error) {
	return s.mutate(ctx, productID, models.OperationSell, qty, remark, operator,
		func(inv *models.Inventory) error {
			return inv.ApplySell(qty)
		})
}

// Restock 入库补货，operationID为调用方提供的幂等键，可为空
func (s *LedgerService) Restock(ctx context.Context, productID string, qty int, notes string, operationID string, operator *utils.LoginUser) (*models.StockSnapshot, error) {
	return s.mutateFull(ctx, productID, models.OperationRestock, notes, operationID, operator,
		func(inv *models.Inventory) error {
			return inv.ApplyRestock(qty, notes)
		},
		func() int { return qty })
}

// Reconcile 人工触发的渠道对账，以线下渠道为准对齐全部库存数字。
// 返回对账后的完整台账而不是快照，方便操作员核对渠道明细
func (s *LedgerService) Reconcile(ctx context.Context, productID string, operator *utils.LoginUser) (*models.Inventory, error) {
	var result *models.Inventory
	var corrected int

	_, err := s.mutateFull(ctx, productID, models.OperationReconcile, "", "", operator,
		func(inv *models.Inventory) error {
			corrected = inv.ChannelDifference()
			inv.ApplyReconcile()
			result = inv
			return nil
		},
		func() int { return corrected })
	if err != nil {
		return nil, err
	}
	return result, nil
}

// mutate 库存操作的公共循环：读取、状态转换、条件写入、冲突重试
func (s *LedgerService) mutate(ctx context.Context, productID, opType string, qty int, remark string,
	operator *utils.LoginUser, apply func(*models.Inventory) error) (*models.StockSnapshot, error) {

	snap, err := s.mutateFull(ctx, productID, opType, remark, "", operator,
		apply, func() int { return qty })
	return snap, err
}

func (s *LedgerService) mutateFull(ctx context.Context, productID, opType, remark, operationID string,
	operator *utils.LoginUser, apply func(*models.Inventory) error, recordQty func() int) (*models.StockSnapshot, error) {

	for attempt := 0; attempt < maxCASRetries; attempt++ {
		current, err := s.store.Get(ctx, productID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, utils.CreateNotFoundError(ledgerResourceName)
		}

		// 保留读取时刻的副本作为条件写入的比较基准
		prev := *current

		if err := apply(current); err != nil {
			if errors.Is(err, models.ErrInsufficientStock) {
				return nil, utils.CreateInsufficientStockError(prev.AvailableStock)
			}
			return nil, err
		}

		ok, err := s.store.CompareAndSwap(ctx, &prev, current)
		if err != nil {
			return nil, err
		}
		if !ok {
			utils.LogWarn(map[string]interface{}{
				"productId": productID,
				"operation": opType,
				"attempt":   attempt + 1,
			}, "库存操作遇到并发冲突，重读重试")
			continue
		}

		s.appendRecord(ctx, productID, opType, recordQty(), remark, operationID, operator)

		snap := current.Snapshot()
		utils.LogInfo(map[string]interface{}{
			"productId":      productID,
			"operation":      opType,
			"currentStock":   snap.CurrentStock,
			"availableStock": snap.AvailableStock,
			"reservedStock":  snap.ReservedStock,
		}, "库存操作成功")
		return &snap, nil
	}

	utils.LogError(nil, map[string]interface{}{
		"productId": productID,
		"operation": opType,
		"retries":   maxCASRetries,
	}, "库存操作重试次数耗尽")
	return nil, utils.CreateUncertainOperationError()
}

// appendRecord 追加操作审计记录，失败只记录日志不影响已生效的库存变更
func (s *LedgerService) appendRecord(ctx context.Context, productID, opType string, qty int, remark, operationID string, operator *utils.LoginUser) {
	rec := &models.InventoryRecord{
		ProductID:     productID,
		OperationType: opType,
		Quantity:      qty,
		Remark:        remark,
		Operator:      "system",
		OperationID:   operationID,
		OperationTime: time.Now(),
	}
	if operator != nil {
		rec.Operator = operator.Username
		rec.OperatorID = operator.ID
	}

	if err := s.store.AppendRecord(ctx, rec); err != nil {
		utils.LogError(err, map[string]interface{}{
			"productId": productID,
			"operation": opType,
		}, "写入库存操作记录失败")
	}
}
