package model

import "time"

// 配送先住所
// 1ユーザーにつき isPrimary=true は最大1件
type DeliveryInformation struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//宛名
	Name string `gorm:"type:varchar(255);not null" json:"name"`

	//電話番号
	ContactNo string `gorm:"type:varchar(30);not null" json:"contact_no"`

	Region   string `gorm:"type:varchar(100);not null" json:"region"`
	Province string `gorm:"type:varchar(100);not null" json:"province"`
	City     string `gorm:"type:varchar(255);not null" json:"city"`

	//番地など
	StreetNumber string `gorm:"type:varchar(255);not null" json:"street_number"`

	//郵便番号
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code"`

	//このユーザーのデフォルト住所か
	IsPrimary bool `gorm:"not null;default:false" json:"is_primary"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
