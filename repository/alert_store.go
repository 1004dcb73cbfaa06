package repository

import (
	"context"
	"time"

	"github.com/BerniceZTT/shop_end/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoAlertStore 告警扫描所需的数据源，实现service.AlertSource
type MongoAlertStore struct {
	configs   *mongo.Collection
	inventory *mongo.Collection
	products  *mongo.Collection
}

// NewMongoAlertStore 创建告警数据源
func NewMongoAlertStore() *MongoAlertStore {
	return &MongoAlertStore{
		configs:   Collection(AlertConfigsCollection),
		inventory: Collection(InventoryCollection),
		products:  Collection(ProductsCollection),
	}
}

// ActiveConfigs 查询状态为active且至少启用一个通知通道的告警配置
func (s *MongoAlertStore) ActiveConfigs(ctx context.Context) ([]models.AlertConfig, error) {
	query := bson.M{
		"status": models.AlertConfigStatusActive,
		"$or": []bson.M{
			{"emailAlerts.enabled": true},
			{"appAlerts.enabled": true},
			{"webhookAlerts.enabled": true},
		},
	}

	cursor, err := s.configs.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var configs []models.AlertConfig
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// Configs 查询告警配置用于列表展示，默认只返回active状态
func (s *MongoAlertStore) Configs(ctx context.Context, includeInactive bool) ([]models.AlertConfig, error) {
	query := bson.M{}
	if !includeInactive {
		query["status"] = models.AlertConfigStatusActive
	}

	cursor, err := s.configs.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var configs []models.AlertConfig
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// InventoryByProduct 按产品ID查找库存台账，不存在时返回(nil, nil)
func (s *MongoAlertStore) InventoryByProduct(ctx context.Context, productID string) (*models.Inventory, error) {
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

// ProductByID 按ID查找产品，用于渲染告警内容，不存在时返回(nil, nil)
func (s *MongoAlertStore) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var product models.Product
	err = s.products.FindOne(ctx, bson.M{"_id": objID}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// MarkAlertSent 记录某类型告警的发送时间（发送成功后由队列回调触发），
// 网络类错误自动重试
func (s *MongoAlertStore) MarkAlertSent(ctx context.Context, configID primitive.ObjectID, alertType models.AlertType, at time.Time) error {
	_, err := ExecuteDbOperation(func() (interface{}, error) {
		return s.configs.UpdateOne(
			ctx,
			bson.M{"_id": configID},
			bson.M{"$set": bson.M{
				"lastAlertsSent." + string(alertType): at,
				"updatedAt":                           at,
			}},
		)
	}, 3)
	return err
}
