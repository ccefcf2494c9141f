package handler

import (
	"net/http"
	"strconv"
	"time"

	repo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type SuggestShippingFeeRequest struct {
	Fee decimal.Decimal `json:"fee"`
}

func (h *AdminOrderHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/orders", h.list)
	admin.POST("/orders/:id/cancel", h.cancel)
	admin.POST("/orders/:id/suggest-shipping-fee", h.suggestShippingFee)
	admin.POST("/orders/:id/delivering", h.markDelivering)
	admin.POST("/orders/:id/complete", h.markCompleted)
	admin.POST("/orders/:id/return", h.markReturned)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	status := c.QueryParam("status")

	var userID *int64
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
		}
		userID = &id
	}

	var fromPtr *time.Time
	if v := c.QueryParam("from"); v != "" {
		tm, ok := usecase.ParseDateTimeRFC3339(v)
		if !ok {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
		}
		fromPtr = tm
	}

	var toPtr *time.Time
	if v := c.QueryParam("to"); v != "" {
		tm, ok := usecase.ParseDateTimeRFC3339(v)
		if !ok {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
		}
		toPtr = tm
	}

	out, err := h.uc.List(c.Request().Context(), repo.AdminOrderListFilter{
		Page:   page,
		Limit:  limit,
		Status: status,
		UserID: userID,
		From:   fromPtr,
		To:     toPtr,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// 管理者キャンセルは当日縛りなし（発送前ならいつでも）
func (h *AdminOrderHandler) cancel(c echo.Context) error {
	adminID, orderID, ok := h.adminAndOrderID(c)
	if !ok {
		return nil
	}
	if err := h.uc.Cancel(c.Request().Context(), adminID, orderID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "canceled"})
}

// 送料提示。成功するとSHIPPING→SHIPPEDになる。
func (h *AdminOrderHandler) suggestShippingFee(c echo.Context) error {
	adminID, orderID, ok := h.adminAndOrderID(c)
	if !ok {
		return nil
	}

	var req SuggestShippingFeeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.SuggestShippingFee(c.Request().Context(), adminID, orderID, req.Fee); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "fee suggested"})
}

func (h *AdminOrderHandler) markDelivering(c echo.Context) error {
	adminID, orderID, ok := h.adminAndOrderID(c)
	if !ok {
		return nil
	}
	if err := h.uc.MarkDelivering(c.Request().Context(), adminID, orderID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "delivering"})
}

func (h *AdminOrderHandler) markCompleted(c echo.Context) error {
	adminID, orderID, ok := h.adminAndOrderID(c)
	if !ok {
		return nil
	}
	if err := h.uc.MarkCompleted(c.Request().Context(), adminID, orderID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "completed"})
}

func (h *AdminOrderHandler) markReturned(c echo.Context) error {
	adminID, orderID, ok := h.adminAndOrderID(c)
	if !ok {
		return nil
	}
	if err := h.uc.MarkReturned(c.Request().Context(), adminID, orderID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "returned"})
}

// ★操作した管理者IDを取得（監査ログ用）。
// NGならここでレスポンスを書いて ok=false を返す。
func (h *AdminOrderHandler) adminAndOrderID(c echo.Context) (int64, int64, bool) {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return 0, 0, false
	}
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return 0, 0, false
	}
	return adminID, orderID, true
}
