package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	repo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/watch"

	"github.com/shopspring/decimal"
)

// ストリームのスナップショットに入れる最大件数
const snapshotPageSize = 100

type OrderUsecase struct {
	tx       repo.TransactionManager
	clock    Clock
	notifier Notifier
	streams  *watch.Registry[OrderOutput]
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	clock Clock,
	notifier Notifier,
	streams *watch.Registry[OrderOutput],
) *OrderUsecase {
	return &OrderUsecase{tx: tx, clock: clock, notifier: notifier, streams: streams}
}

type PlaceOrderInput struct {
	DeliveryInformationID int64
	PaymentMethod         string
	AdditionalNote        string
	IdempotencyKey        string
}

type OrderItemOutput struct {
	ProductID   int64           `json:"product_id"`
	InventoryID int64           `json:"inventory_id"`
	Name        string          `json:"name"`
	Size        string          `json:"size"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
}

type OrderOutput struct {
	ID                        int64                  `json:"id"`
	UserID                    int64                  `json:"user_id"`
	Status                    string                 `json:"status"`
	SuggestedShippingFee      decimal.Decimal        `json:"suggested_shipping_fee"`
	IsUserAgreedToShippingFee bool                   `json:"is_user_agreed_to_shipping_fee"`
	PaymentMethod             string                 `json:"payment_method"`
	Delivery                  model.DeliverySnapshot `json:"delivery_information"`
	TotalCost                 decimal.Decimal        `json:"total_cost"`
	TotalPayable              decimal.Decimal        `json:"total_payable"`
	NumberOfItems             int64                  `json:"number_of_items"`
	AdditionalNote            string                 `json:"additional_note,omitempty"`
	CreatedAt                 time.Time              `json:"created_at"`
	Items                     []OrderItemOutput      `json:"items"`
}

// ステータス変更のプッシュ通知ペイロード
type OrderStatusEvent struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// 同じキーの注文が同時に先着したときの印。
// ユニーク違反でトランザクション全体が落ちるので、巻き戻してから別トランザクションで読み直す。
var errIdempotencyRace = errors.New("concurrent order with same idempotency key")

// PlaceOrder はチェックアウト。カートを凍結して注文を作り、在庫を確保する。
// 在庫確保・注文作成・カート破棄は1トランザクション（どれかが失敗したら全部無し）。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.DeliveryInformationID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid delivery_information_id")
	}
	payment := model.PaymentMethod(strings.TrimSpace(in.PaymentMethod))
	if !model.IsValidPaymentMethod(payment) {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = toOrderOutput(existing, items)
			return nil
		}

		//配送先の存在確認＋所有チェック
		info, err := r.DeliveryInformation().FindByID(ctx, in.DeliveryInformationID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if info.UserID != userID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		//カート明細取得
		cartItems, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		orderItems := make([]model.OrderItem, 0, len(cartItems))
		lines := make([]repo.StockLine, 0, len(cartItems))
		total := decimal.Zero
		var count int64 = 0

		for _, ci := range cartItems {
			//商品チェック（公開のみ）
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "invalid")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, "invalid")
			}

			inv, err := r.Inventory().FindByID(ctx, ci.InventoryID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "invalid")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if inv.ProductID != ci.ProductID {
				return NewHTTPError(http.StatusBadRequest, "invalid")
			}

			lines = append(lines, repo.StockLine{InventoryID: ci.InventoryID, Quantity: ci.Quantity})

			//スナップショット
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           ci.ProductID,
				InventoryID:         ci.InventoryID,
				ProductNameSnapshot: p.Name,
				Size:                inv.Size,
				UnitPriceSnapshot:   ci.UnitPriceSnapshot,
				Quantity:            ci.Quantity,
			})

			total = total.Add(ci.SubTotal())
			count += ci.Quantity
		}

		//在庫確保。足りない行があれば全体を巻き戻す
		if err := ReserveStock(ctx, r.Inventory(), lines); err != nil {
			var short *StockShortError
			if errors.As(err, &short) {
				return NewHTTPError(http.StatusBadRequest, "out of stock")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 注文作成。配送先はコピーして持つ（以後住所を消されても注文は壊れない）
		order := model.Order{
			UserID:        userID,
			Status:        model.OrderStatusShipping,
			PaymentMethod: payment,
			Delivery: model.DeliverySnapshot{
				Name:         info.Name,
				ContactNo:    info.ContactNo,
				Region:       info.Region,
				Province:     info.Province,
				City:         info.City,
				StreetNumber: info.StreetNumber,
				PostalCode:   info.PostalCode,
			},
			TotalCost:      total,
			NumberOfItems:  count,
			AdditionalNote: strings.TrimSpace(in.AdditionalNote),
			IdempotencyKey: key,
			CreatedAt:      u.clock.Now(),
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			//ユニーク違反後はこのトランザクション内でもう何も読めない。
			//いったん全部巻き戻して、先着した注文を外で読み直す
			if errors.Is(err, repo.ErrConflict) {
				return errIdempotencyRace
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//カートは注文に変換したので破棄（再注文防止）
		if err := r.CartItems().DeleteAllByUserID(ctx, userID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order.ID = orderID
		out = toOrderOutput(order, orderItems)
		return nil
	})

	if errors.Is(err, errIdempotencyRace) {
		//先着側が確定しているはずなので同じ結果を返す
		return u.replayByIdempotencyKey(ctx, userID, key)
	}
	if err != nil {
		return OrderOutput{}, err
	}

	u.publishSnapshot(ctx, userID)
	return out, nil
}

// 巻き戻した後の読み直し。新しいトランザクションで行う。
func (u *OrderUsecase) replayByIdempotencyKey(ctx context.Context, userID int64, key string) (OrderOutput, error) {
	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !found {
			//ユニーク違反したのに行が無いのは先着側がロールバックした場合。リトライしてもらう
			return NewHTTPError(http.StatusConflict, "idempotency conflict")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(existing, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page, limit int) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// CancelMyOrder は購入者による発送前キャンセル。
// 注文当日しか認めない。日付のチェックはここで行う
// （画面で隠すだけだとAPIを直接叩けば通ってしまう）。
func (u *OrderUsecase) CancelMyOrder(ctx context.Context, userID int64, orderID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		if o.Status.IsTerminal() {
			return NewHTTPError(http.StatusBadRequest, "order already closed")
		}
		if !o.Status.CanTransitionTo(model.OrderStatusCanceled) {
			return NewHTTPError(http.StatusBadRequest, "cannot cancel after shipping fee is suggested")
		}

		//当日判定はカレンダー日付で行う
		if !sameCalendarDay(o.CreatedAt, u.clock.Now()) {
			return NewHTTPError(http.StatusBadRequest, "cancel is only allowed on the order date")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := ReleaseStock(ctx, r.Inventory(), toStockLines(items)); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//読んだ時点のstatusを条件にする。裏で送料提示が入っていたら0件になる
		if err := r.Orders().UpdateStatus(ctx, orderID, o.Status, model.OrderStatusCanceled); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusConflict, "order state changed")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return err
	}

	u.notifyStatus(ctx, userID, orderID, model.OrderStatusCanceled, "Your order has been canceled.")
	u.publishSnapshot(ctx, userID)
	return nil
}

// AgreeToShippingFee は提示された送料への同意。
func (u *OrderUsecase) AgreeToShippingFee(ctx context.Context, userID int64, orderID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		if o.Status != model.OrderStatusShipped {
			return NewHTTPError(http.StatusBadRequest, "no shipping fee to agree to")
		}
		if o.SuggestedShippingFee.LessThanOrEqual(decimal.Zero) {
			//0は「未提示」
			return NewHTTPError(http.StatusBadRequest, "no shipping fee to agree to")
		}
		if o.IsUserAgreedToShippingFee {
			// すでに同意済みなら何もしない（200）
			return nil
		}

		if err := r.Orders().SetAgreedToShippingFee(ctx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return err
	}

	u.publishSnapshot(ctx, userID)
	return nil
}

// StreamMyOrders は注文一覧のスナップショット購読。
// 返すcancelを必ず呼んで購読を解除すること。
func (u *OrderUsecase) StreamMyOrders(ctx context.Context, userID int64) (<-chan []OrderOutput, func(), error) {
	if userID <= 0 {
		return nil, nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	ch, cancel := u.streams.ForUser(userID).Subscribe()

	//初回スナップショットを入れておく。ストリームは先頭ページ固定
	outs, err := u.ListMyOrders(ctx, userID, 1, snapshotPageSize)
	if err == nil {
		u.streams.ForUser(userID).Publish(outs)
	}
	return ch, cancel, nil
}

// 変更後に全件を読み直して購読者へ流す
func (u *OrderUsecase) publishSnapshot(ctx context.Context, userID int64) {
	hub := u.streams.ForUser(userID)
	if hub.SubscriberCount() == 0 {
		return
	}
	outs, err := u.ListMyOrders(ctx, userID, 1, snapshotPageSize)
	if err != nil {
		return
	}
	hub.Publish(outs)
}

func (u *OrderUsecase) notifyStatus(ctx context.Context, userID, orderID int64, status model.OrderStatus, msg string) {
	//通知は落ちても注文処理は成功のまま
	_ = u.notifier.Publish(ctx, userOrderTopic(userID), OrderStatusEvent{
		OrderID: orderID,
		Status:  string(status),
		Message: msg,
	})
}

func userOrderTopic(userID int64) string {
	return "orders:" + strconv.FormatInt(userID, 10)
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

func toStockLines(items []model.OrderItem) []repo.StockLine {
	lines := make([]repo.StockLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, repo.StockLine{InventoryID: it.InventoryID, Quantity: it.Quantity})
	}
	return lines
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:   it.ProductID,
			InventoryID: it.InventoryID,
			Name:        it.ProductNameSnapshot,
			Size:        it.Size,
			Price:       it.UnitPriceSnapshot,
			Quantity:    it.Quantity,
		})
	}

	return OrderOutput{
		ID:                        o.ID,
		UserID:                    o.UserID,
		Status:                    string(o.Status),
		SuggestedShippingFee:      o.SuggestedShippingFee,
		IsUserAgreedToShippingFee: o.IsUserAgreedToShippingFee,
		PaymentMethod:             string(o.PaymentMethod),
		Delivery:                  o.Delivery,
		TotalCost:                 o.TotalCost,
		TotalPayable:              o.TotalPayable(),
		NumberOfItems:             o.NumberOfItems,
		AdditionalNote:            o.AdditionalNote,
		CreatedAt:                 o.CreatedAt,
		Items:                     outItems,
	}
}
