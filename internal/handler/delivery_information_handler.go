package handler

import (
	"net/http"
	"strconv"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type DeliveryInformationHandler struct {
	uc *usecase.DeliveryInformationUsecase
}

func NewDeliveryInformationHandler(uc *usecase.DeliveryInformationUsecase) *DeliveryInformationHandler {
	return &DeliveryInformationHandler{uc: uc}
}

func (h *DeliveryInformationHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/delivery-informations", h.List)
	g.GET("/delivery-informations/stream", h.Stream)
	g.POST("/delivery-informations", h.Create)
	g.PATCH("/delivery-informations/:id", h.Update)
	g.DELETE("/delivery-informations/:id", h.Delete)
	g.POST("/delivery-informations/:id/default", h.SetDefault)
}

func (h *DeliveryInformationHandler) List(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	list, err := h.uc.List(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *DeliveryInformationHandler) Create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req usecase.DeliveryInformationCreateRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, usecase.ErrValidation)
	}

	created, err := h.uc.Create(c.Request().Context(), userID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *DeliveryInformationHandler) Update(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return writeError(c, usecase.ErrValidation)
	}

	var req usecase.DeliveryInformationUpdateRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, usecase.ErrValidation)
	}

	if err := h.uc.Update(c.Request().Context(), userID, id, req); err != nil {
		return writeError(c, err)
	}

	// Success は {message:string} に寄せる
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *DeliveryInformationHandler) Delete(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return writeError(c, usecase.ErrValidation)
	}

	if err := h.uc.Delete(c.Request().Context(), userID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

// 既定住所の切替。古い既定の解除と新しい既定の設定は一緒に行われる。
func (h *DeliveryInformationHandler) SetDefault(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return writeError(c, usecase.ErrValidation)
	}

	if err := h.uc.ChangeDefault(c.Request().Context(), userID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "default set"})
}

// 住所一覧スナップショットのSSE
func (h *DeliveryInformationHandler) Stream(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	ch, cancel, err := h.uc.Stream(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return streamJSON(c, ch, cancel)
}
