package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カートの明細。商品×サイズ（inventory）ごとに1行。
// 価格は追加時点のスナップショットを必ず保存する。
type CartItem struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64           `gorm:"not null;index;uniqueIndex:idx_user_inventory" json:"user_id"`
	ProductID         int64           `gorm:"not null;index" json:"product_id"`
	InventoryID       int64           `gorm:"not null;uniqueIndex:idx_user_inventory" json:"inventory_id"`
	Quantity          int64           `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot decimal.Decimal `gorm:"type:numeric(12,2);not null;column:unit_price_snapshot" json:"unit_price_snapshot"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// SubTotal は数量×単価スナップショット。
func (c CartItem) SubTotal() decimal.Decimal {
	return c.UnitPriceSnapshot.Mul(decimal.NewFromInt(c.Quantity))
}
