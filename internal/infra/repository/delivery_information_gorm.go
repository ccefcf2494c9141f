package repository

import (
	"context"
	"errors"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	repo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"

	"gorm.io/gorm"
)

type deliveryInformationGormRepository struct {
	db *gorm.DB
}

// DI
func NewDeliveryInformationGormRepository(db *gorm.DB) repo.DeliveryInformationRepository {
	return &deliveryInformationGormRepository{db: db}
}

// 住所を作成
func (r *deliveryInformationGormRepository) Create(ctx context.Context, info model.DeliveryInformation) (model.DeliveryInformation, error) {
	if err := r.db.WithContext(ctx).Create(&info).Error; err != nil {
		return model.DeliveryInformation{}, err
	}
	return info, nil
}

// ユーザーの住所一覧を返す
func (r *deliveryInformationGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.DeliveryInformation, error) {
	var list []model.DeliveryInformation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_primary DESC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// 住所IDで1件取得
func (r *deliveryInformationGormRepository) FindByID(ctx context.Context, infoID int64) (model.DeliveryInformation, error) {
	var d model.DeliveryInformation
	if err := r.db.WithContext(ctx).First(&d, infoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.DeliveryInformation{}, repo.ErrNotFound
		}
		return model.DeliveryInformation{}, err
	}
	return d, nil
}

// デフォルトの1件
func (r *deliveryInformationGormRepository) FindPrimaryByUserID(ctx context.Context, userID int64) (model.DeliveryInformation, error) {
	var d model.DeliveryInformation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_primary = TRUE", userID).
		Limit(1).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DeliveryInformation{}, repo.ErrNotFound
	}
	if err != nil {
		return model.DeliveryInformation{}, err
	}
	return d, nil
}

// 住所を更新（isPrimaryはここでは触らない）
func (r *deliveryInformationGormRepository) Update(ctx context.Context, info model.DeliveryInformation) error {
	result := r.db.WithContext(ctx).
		Model(&model.DeliveryInformation{}).
		Where("id = ?", info.ID).
		Select(
			"name",
			"contact_no",
			"region",
			"province",
			"city",
			"street_number",
			"postal_code",
		).
		Updates(info)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 住所を削除
func (r *deliveryInformationGormRepository) Delete(ctx context.Context, infoID int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", infoID).
		Delete(&model.DeliveryInformation{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// その住所がそのユーザーのものか
func (r *deliveryInformationGormRepository) IsOwnedByUser(ctx context.Context, infoID, userID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.DeliveryInformation{}).
		Where("id = ? AND user_id = ?", infoID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count == 1, nil
}

// デフォルト住所を切り替える。
// 解除と設定を別々に投げると、間で落ちたときprimaryが0件になるので
// 必ず1トランザクションで行う。
func (r *deliveryInformationGormRepository) ChangeDefault(ctx context.Context, userID, infoID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//指定住所がこのユーザーのものか確認
		var count int64
		if err := tx.Model(&model.DeliveryInformation{}).
			Where("id = ? AND user_id = ?", infoID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return repo.ErrNotFound
		}

		//そのユーザーのprimaryを全て false
		if err := tx.Model(&model.DeliveryInformation{}).
			Where("user_id = ? AND is_primary = TRUE", userID).
			Update("is_primary", false).Error; err != nil {
			return err
		}

		//指定住所だけ true
		result := tx.Model(&model.DeliveryInformation{}).
			Where("id = ? AND user_id = ?", infoID, userID).
			Update("is_primary", true)

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}
