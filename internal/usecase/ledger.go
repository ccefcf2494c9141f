package usecase

import (
	"context"
	"fmt"

	repo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"
)

// 台帳操作の失敗。どの在庫行が足りなかったかを持って返す。
type StockShortError struct {
	InventoryID int64
	Op          string
}

func (e *StockShortError) Error() string {
	return fmt.Sprintf("%s failed: inventory %d has not enough units", e.Op, e.InventoryID)
}

// 台帳の4操作。各行は条件付きUPDATEで動かし、1行でも足りなければ
// エラーを返してトランザクションごと巻き戻す（部分適用は残さない）。

// ReserveStock はチェックアウト時の確保。stock→committed
func ReserveStock(ctx context.Context, inv repo.InventoryRepository, lines []repo.StockLine) error {
	return moveAll(ctx, lines, "reserve", func(l repo.StockLine) (bool, error) {
		return inv.MoveStockToCommitted(ctx, l.InventoryID, l.Quantity)
	})
}

// ReleaseStock は発送前キャンセルの戻し。committed→stock
func ReleaseStock(ctx context.Context, inv repo.InventoryRepository, lines []repo.StockLine) error {
	return moveAll(ctx, lines, "release", func(l repo.StockLine) (bool, error) {
		return inv.MoveCommittedToStock(ctx, l.InventoryID, l.Quantity)
	})
}

// FulfillStock は受け渡し完了。committed→sold
func FulfillStock(ctx context.Context, inv repo.InventoryRepository, lines []repo.StockLine) error {
	return moveAll(ctx, lines, "fulfill", func(l repo.StockLine) (bool, error) {
		return inv.MoveCommittedToSold(ctx, l.InventoryID, l.Quantity)
	})
}

// RefundStock は返品。sold→returned
func RefundStock(ctx context.Context, inv repo.InventoryRepository, lines []repo.StockLine) error {
	return moveAll(ctx, lines, "refund", func(l repo.StockLine) (bool, error) {
		return inv.MoveSoldToReturned(ctx, l.InventoryID, l.Quantity)
	})
}

func moveAll(ctx context.Context, lines []repo.StockLine, op string, move func(repo.StockLine) (bool, error)) error {
	for _, l := range lines {
		if l.Quantity < 1 {
			return &StockShortError{InventoryID: l.InventoryID, Op: op}
		}
		ok, err := move(l)
		if err != nil {
			return err
		}
		if !ok {
			return &StockShortError{InventoryID: l.InventoryID, Op: op}
		}
	}
	return nil
}
