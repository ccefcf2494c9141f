package model

import "time"

// 端末ごとのプッシュ通知トークン。user+deviceで1件。
type NotificationToken struct {
	ID       int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   int64    `gorm:"not null;index;uniqueIndex:idx_user_device" json:"user_id"`
	DeviceID string   `gorm:"type:varchar(100);not null;uniqueIndex:idx_user_device" json:"device_id"`
	Token    string   `gorm:"type:text;not null" json:"token"`
	UserType UserType `gorm:"type:varchar(20);not null" json:"user_type"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
