package repository

import (
	"context"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"

	"github.com/shopspring/decimal"
)

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	// 同じ商品×サイズはプラス
	UpsertByUserAndInventory(ctx context.Context, userID int64, productID int64, inventoryID int64, addQty int64, unitPriceSnapshot decimal.Decimal) error
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	// チェックアウト後にカートを破棄する
	DeleteAllByUserID(ctx context.Context, userID int64) error
	IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error)
}
