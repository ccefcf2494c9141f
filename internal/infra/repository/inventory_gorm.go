package repository

import (
	"context"
	"errors"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	repo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

func (r *InventoryGormRepository) FindByID(ctx context.Context, inventoryID int64) (model.Inventory, error) {
	var inv model.Inventory
	if err := r.db.WithContext(ctx).First(&inv, inventoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Inventory{}, repo.ErrNotFound
		}
		return model.Inventory{}, err
	}
	return inv, nil
}

func (r *InventoryGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.Inventory, error) {
	var list []model.Inventory
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("size ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *InventoryGormRepository) Create(ctx context.Context, inv model.Inventory) (model.Inventory, error) {
	if err := r.db.WithContext(ctx).Create(&inv).Error; err != nil {
		return model.Inventory{}, err
	}
	return inv, nil
}

func (r *InventoryGormRepository) Delete(ctx context.Context, inventoryID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", inventoryID).
		Delete(&model.Inventory{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *InventoryGormRepository) SetRestockLevel(ctx context.Context, inventoryID int64, level int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Inventory{}).
		Where("id = ?", inventoryID).
		Update("restock_level", level)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// カウンタ移動は全部この形。移動元が足りるときだけ1ステートメントで動かす。
// 先に読んで計算してから書くと、同時予約同士で上書きし合う。
func (r *InventoryGormRepository) moveIfEnough(ctx context.Context, inventoryID, qty int64, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Inventory{}).
		Where("id = ? AND "+from+" >= ?", inventoryID, qty).
		Updates(map[string]interface{}{
			from: gorm.Expr(from+" - ?", qty),
			to:   gorm.Expr(to+" + ?", qty),
		})

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// stock→committed（予約）
func (r *InventoryGormRepository) MoveStockToCommitted(ctx context.Context, inventoryID int64, qty int64) (bool, error) {
	return r.moveIfEnough(ctx, inventoryID, qty, "stock", "committed")
}

// committed→stock（発送前キャンセル）
func (r *InventoryGormRepository) MoveCommittedToStock(ctx context.Context, inventoryID int64, qty int64) (bool, error) {
	return r.moveIfEnough(ctx, inventoryID, qty, "committed", "stock")
}

// committed→sold（受け渡し完了）
func (r *InventoryGormRepository) MoveCommittedToSold(ctx context.Context, inventoryID int64, qty int64) (bool, error) {
	return r.moveIfEnough(ctx, inventoryID, qty, "committed", "sold")
}

// sold→returned（返品）
func (r *InventoryGormRepository) MoveSoldToReturned(ctx context.Context, inventoryID int64, qty int64) (bool, error) {
	return r.moveIfEnough(ctx, inventoryID, qty, "sold", "returned")
}

// 物理再入荷
func (r *InventoryGormRepository) AddStock(ctx context.Context, inventoryID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Inventory{}).
		Where("id = ?", inventoryID).
		Update("stock", gorm.Expr("stock + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}
