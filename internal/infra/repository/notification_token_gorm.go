package repository

import (
	"context"
	"errors"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	repo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"

	"gorm.io/gorm"
)

type NotificationTokenGormRepository struct {
	db *gorm.DB
}

func NewNotificationTokenGormRepository(db *gorm.DB) *NotificationTokenGormRepository {
	return &NotificationTokenGormRepository{db: db}
}

func (r *NotificationTokenGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.NotificationToken, error) {
	var list []model.NotificationToken
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// user+deviceで1件。同じトークンなら何もしない。
func (r *NotificationTokenGormRepository) Upsert(ctx context.Context, token model.NotificationToken) (model.NotificationToken, bool, error) {
	var created bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.NotificationToken
		err := tx.
			Where("user_id = ? AND device_id = ?", token.UserID, token.DeviceID).
			First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(&token).Error; err != nil {
				return err
			}
			created = true
			return nil
		}
		if err != nil {
			return err
		}

		//同じトークンが既に入っているなら何もしない
		if existing.Token == token.Token {
			token = existing
			return nil
		}

		if err := tx.Model(&model.NotificationToken{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"token":     token.Token,
				"user_type": token.UserType,
			}).Error; err != nil {
			return err
		}
		token.ID = existing.ID
		created = true
		return nil
	})

	if err != nil {
		return model.NotificationToken{}, false, err
	}
	return token, created, nil
}

func (r *NotificationTokenGormRepository) DeleteByUserAndDevice(ctx context.Context, userID int64, deviceID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND device_id = ?", userID, deviceID).
		Delete(&model.NotificationToken{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
