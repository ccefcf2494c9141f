package repository

import (
	"context"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
)

// 台帳を動かす1行分（在庫ID×数量）
type StockLine struct {
	InventoryID int64
	Quantity    int64
}

// 在庫台帳の永続化。カウンタの移動は必ず条件付きUPDATEで行う
// （読んでから上書きすると同時予約で負ける）。
type InventoryRepository interface {
	FindByID(ctx context.Context, inventoryID int64) (model.Inventory, error)
	ListByProductID(ctx context.Context, productID int64) ([]model.Inventory, error)

	Create(ctx context.Context, inv model.Inventory) (model.Inventory, error)
	Delete(ctx context.Context, inventoryID int64) error
	SetRestockLevel(ctx context.Context, inventoryID int64, level int64) error

	// stock→committed。足りなければ false
	MoveStockToCommitted(ctx context.Context, inventoryID int64, qty int64) (bool, error)
	// committed→stock（発送前キャンセル）
	MoveCommittedToStock(ctx context.Context, inventoryID int64, qty int64) (bool, error)
	// committed→sold（受け渡し完了）
	MoveCommittedToSold(ctx context.Context, inventoryID int64, qty int64) (bool, error)
	// sold→returned（返品）
	MoveSoldToReturned(ctx context.Context, inventoryID int64, qty int64) (bool, error)

	// 物理再入荷。stockにだけ足す
	AddStock(ctx context.Context, inventoryID int64, qty int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
