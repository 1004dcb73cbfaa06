package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product 产品模型，库存与告警模块只通过productId引用产品
type Product struct {
	ID          primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Brand       string             `json:"brand" bson:"brand"`
	Price       float64            `json:"price" bson:"price"`
	ImageURL    string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time          `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt   time.Time          `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// CreateProductRequest 创建产品请求，初始库存通过台账初始化
type CreateProductRequest struct {
	Name         string  `json:"name" binding:"required"`
	Brand        string  `json:"brand" binding:"required"`
	Price        float64 `json:"price" binding:"required,gt=0"`
	ImageURL     string  `json:"imageUrl"`
	Description  string  `json:"description"`
	InitialStock int     `json:"initialStock" binding:"omitempty,min=0"`
	MinStock     int     `json:"minStock" binding:"omitempty,min=0"`
	MaxStock     int     `json:"maxStock" binding:"omitempty,min=0"`
}
