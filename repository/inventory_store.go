package repository

import (
	"context"

	"github.com/BerniceZTT/shop_end/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoInventoryStore 库存台账的MongoDB存储，实现service.InventoryStore。
// 写入通过条件ReplaceOne完成：只有读取时看到的库存字段在写入时仍未变化，
// 替换才会生效，并发冲突由调用方重读重试
type MongoInventoryStore struct {
	inventory *mongo.Collection
	records   *mongo.Collection
}

// NewMongoInventoryStore 创建库存存储
func NewMongoInventoryStore() *MongoInventoryStore {
	return &MongoInventoryStore{
		inventory: Collection(InventoryCollection),
		records:   Collection(InventoryRecordsCollection),
	}
}

// Get 按产品ID查找库存台账，不存在时返回(nil, nil)
func (s *MongoInventoryStore) Get(ctx context.Context, productID string) (*models.Inventory, error) {
	var inv models.Inventory
	err := s.inventory.FindOne(ctx, bson.M{"productId": productID}).Decode(&inv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

// CompareAndSwap 条件替换：库存相关字段自prev读取以来未被修改时才写入next。
// 前置条件（如可用库存充足）由存储层在写入时刻裁决，而不是调用方的读时检查
func (s *MongoInventoryStore) CompareAndSwap(ctx context.Context, prev, next *models.Inventory) (bool, error) {
	filter := bson.M{
		"_id":                     prev.ID,
		"currentStock":            prev.CurrentStock,
		"reservedStock":           prev.ReservedStock,
		"channels.physical.stock": prev.Channels.Physical.Stock,
		"channels.digital.stock":  prev.Channels.Digital.Stock,
	}

	result, err := s.inventory.ReplaceOne(ctx, filter, next)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

// AppendRecord 追加库存操作记录，网络类错误自动重试
func (s *MongoInventoryStore) AppendRecord(ctx context.Context, rec *models.InventoryRecord) error {
	_, err := ExecuteDbOperation(func() (interface{}, error) {
		return s.records.InsertOne(ctx, rec)
	}, 3)
	return err
}
