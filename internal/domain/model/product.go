package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID  int64           `gorm:"not null;index" json:"category_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	ImageURL    string          `gorm:"type:text" json:"image_url"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	//表示用ラベル（NEW / SALE など）
	Flag     string `gorm:"type:varchar(50)" json:"flag"`
	Type     string `gorm:"type:varchar(50)" json:"type"`
	IsActive bool   `gorm:"not null;default:false" json:"is_active"`

	//サイズ別の在庫台帳
	Inventories []Inventory `gorm:"foreignKey:ProductID" json:"inventories,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
