package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	repo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"

	"github.com/shopspring/decimal"
)

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
	notifier  Notifier
	clock     Clock
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	auditRepo repo.AuditLogRepository,
	notifier Notifier,
	clock Clock,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, auditRepo: auditRepo, notifier: notifier, clock: clock}
}

// 注文一覧（管理者）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
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

// Cancel は管理者によるキャンセル。日付の制限はない。
// 確保済み在庫を戻してからCANCELEDにする。
func (u *AdminOrderUsecase) Cancel(ctx context.Context, actorAdminUserID int64, orderID int64) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var ownerID int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		ownerID = o.UserID

		// 終端ガード
		if o.Status.IsTerminal() {
			return NewHTTPError(http.StatusBadRequest, "order already closed")
		}
		if !o.Status.CanTransitionTo(model.OrderStatusCanceled) {
			return NewHTTPError(http.StatusBadRequest, "cannot cancel after shipping fee is suggested")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//在庫戻し
		if err := ReleaseStock(ctx, r.Inventory(), toStockLines(items)); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, o.Status, model.OrderStatusCanceled); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusConflict, "order state changed")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return u.auditStatusChange(ctx, actorAdminUserID, orderID, o.Status, model.OrderStatusCanceled)
	})

	if err != nil {
		return err
	}

	u.notify(ctx, ownerID, orderID, model.OrderStatusCanceled, "Your order has been canceled by the shop.")
	return nil
}

// SuggestShippingFee は送料の提示。SHIPPINGからSHIPPEDへ進める。
// キャンセルとは別の操作（画面がどうまとめるかはここでは関知しない）。
func (u *AdminOrderUsecase) SuggestShippingFee(ctx context.Context, actorAdminUserID int64, orderID int64, fee decimal.Decimal) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if fee.LessThanOrEqual(decimal.Zero) {
		//0は「未提示」の意味に使っているので提示額としては不正
		return NewHTTPError(http.StatusBadRequest, "invalid shipping fee")
	}

	var ownerID int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		ownerID = o.UserID

		if o.Status.IsTerminal() {
			return NewHTTPError(http.StatusBadRequest, "order already closed")
		}
		if !o.Status.CanTransitionTo(model.OrderStatusShipped) {
			return NewHTTPError(http.StatusBadRequest, "shipping fee can only be suggested before shipment")
		}

		//statusの条件付きUPDATEなので、同時にキャンセルされていたら0件になる
		if err := r.Orders().SetSuggestedShippingFee(ctx, orderID, fee); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusConflict, "order state changed")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		beforeJSON := fmt.Sprintf(`{"status":%q,"suggested_shipping_fee":"0"}`, o.Status)
		afterJSON := fmt.Sprintf(`{"status":%q,"suggested_shipping_fee":%q}`, model.OrderStatusShipped, fee.String())
		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionSuggestShippingFee,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return err
	}

	u.notify(ctx, ownerID, orderID, model.OrderStatusShipped,
		"Your order has been shipped. Please review the suggested shipping fee.")
	return nil
}

// MarkDelivering は配達開始。送料に同意済みの注文だけ進められる。
func (u *AdminOrderUsecase) MarkDelivering(ctx context.Context, actorAdminUserID int64, orderID int64) error {
	return u.advance(ctx, actorAdminUserID, orderID,
		model.OrderStatusDelivery, nil,
		"Your order is out for delivery.")
}

// MarkCompleted は受け渡し完了。committed→sold。
func (u *AdminOrderUsecase) MarkCompleted(ctx context.Context, actorAdminUserID int64, orderID int64) error {
	return u.advance(ctx, actorAdminUserID, orderID,
		model.OrderStatusCompleted, FulfillStock,
		"Your order has been delivered. Thank you for shopping!")
}

// MarkReturned は返品。完了済みの注文だけが対象（sold→returned）。
func (u *AdminOrderUsecase) MarkReturned(ctx context.Context, actorAdminUserID int64, orderID int64) error {
	return u.advance(ctx, actorAdminUserID, orderID,
		model.OrderStatusReturned, RefundStock,
		"Your return has been processed.")
}

// advance は遷移表に沿った1ステップ。台帳効果があれば同じトランザクションで動かす。
func (u *AdminOrderUsecase) advance(
	ctx context.Context,
	actorAdminUserID int64,
	orderID int64,
	next model.OrderStatus,
	ledgerOp func(context.Context, repo.InventoryRepository, []repo.StockLine) error,
	message string,
) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var ownerID int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		ownerID = o.UserID

		if !o.Status.CanTransitionTo(next) {
			if o.Status.IsTerminal() && next != model.OrderStatusReturned {
				return NewHTTPError(http.StatusBadRequest, "order already closed")
			}
			return NewHTTPError(http.StatusBadRequest, "invalid status change")
		}

		//配達開始と完了は送料同意が前提
		if next == model.OrderStatusDelivery || next == model.OrderStatusCompleted {
			if !o.IsUserAgreedToShippingFee {
				return NewHTTPError(http.StatusBadRequest, "customer has not agreed to the shipping fee")
			}
		}

		if ledgerOp != nil {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if err := ledgerOp(ctx, r.Inventory(), toStockLines(items)); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, o.Status, next); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusConflict, "order state changed")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return u.auditStatusChange(ctx, actorAdminUserID, orderID, o.Status, next)
	})

	if err != nil {
		return err
	}

	u.notify(ctx, ownerID, orderID, next, message)
	return nil
}

// ★監査ログ（UPDATE_ORDER_STATUS）
func (u *AdminOrderUsecase) auditStatusChange(ctx context.Context, actorID, orderID int64, before, after model.OrderStatus) error {
	beforeJSON := fmt.Sprintf(`{"status":%q}`, before)
	afterJSON := fmt.Sprintf(`{"status":%q}`, after)
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AdminOrderUsecase) notify(ctx context.Context, userID, orderID int64, status model.OrderStatus, msg string) {
	//通知は落ちてもステータス変更は成功のまま
	_ = u.notifier.Publish(ctx, userOrderTopic(userID), OrderStatusEvent{
		OrderID: orderID,
		Status:  string(status),
		Message: msg,
	})
}

// 期間パラメータでtime.Timeが必要なら、handlerでtime.Parseしてここに入れる
func ParseDateTimeRFC3339(s string) (*time.Time, bool) {
	if s == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
