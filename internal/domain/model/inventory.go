package model

import "time"

// 在庫台帳。商品×サイズごとに1行。
// 1個の在庫は stock / committed / sold / returned のどれか1つにだけ属する。
type Inventory struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64  `gorm:"not null;index;uniqueIndex:idx_product_size" json:"product_id"`
	Size      string `gorm:"type:varchar(30);not null;uniqueIndex:idx_product_size" json:"size"`

	//販売可能
	Stock int64 `gorm:"not null;default:0" json:"stock"`
	//未発送の注文が確保している分
	Committed int64 `gorm:"not null;default:0" json:"committed"`
	//受け渡し済み
	Sold int64 `gorm:"not null;default:0" json:"sold"`
	//返品済み
	Returned int64 `gorm:"not null;default:0" json:"returned"`
	//発注の目安（情報のみ）
	RestockLevel int64 `gorm:"not null;default:0" json:"restock_level"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
