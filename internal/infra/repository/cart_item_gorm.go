package repository

import (
	"context"
	"errors"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	repo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartItemGormRepository struct {
	db *gorm.DB
}

func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

func (r *CartItemGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var list []model.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CartItemGormRepository) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	var it model.CartItem
	if err := r.db.WithContext(ctx).First(&it, cartItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.CartItem{}, repo.ErrNotFound
		}
		return model.CartItem{}, err
	}
	return it, nil
}

// 同じ商品×サイズは数量を加算する
func (r *CartItemGormRepository) UpsertByUserAndInventory(ctx context.Context, userID int64, productID int64, inventoryID int64, addQty int64, unitPriceSnapshot decimal.Decimal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.CartItem
		err := tx.
			Where("user_id = ? AND inventory_id = ?", userID, inventoryID).
			First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			item := model.CartItem{
				UserID:            userID,
				ProductID:         productID,
				InventoryID:       inventoryID,
				Quantity:          addQty,
				UnitPriceSnapshot: unitPriceSnapshot,
			}
			return tx.Create(&item).Error
		}
		if err != nil {
			return err
		}

		return tx.Model(&model.CartItem{}).
			Where("id = ?", existing.ID).
			Update("quantity", gorm.Expr("quantity + ?", addQty)).Error
	})
}

func (r *CartItemGormRepository) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", cartItemID).
		Update("quantity", qty)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartItemGormRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", cartItemID).
		Delete(&model.CartItem{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartItemGormRepository) DeleteAllByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartItem{}).Error
}

func (r *CartItemGormRepository) IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ? AND user_id = ?", cartItemID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count == 1, nil
}
