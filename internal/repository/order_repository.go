package repository

import (
	"context"
	"time"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"

	"github.com/shopspring/decimal"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	//statusの条件付きUPDATE。fromから変わっていたらErrNotFound
	UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error

	//送料提示。statusも同時にSHIPPEDへ進める
	SetSuggestedShippingFee(ctx context.Context, orderID int64, fee decimal.Decimal) error
	//送料への同意フラグを立てる
	SetAgreedToShippingFee(ctx context.Context, orderID int64) error

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
