package handler

import (
	"net/http"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	uc *usecase.NotificationUsecase
}

func NewNotificationHandler(uc *usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

type BroadcastNewsRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *NotificationHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/notification-tokens", h.registerToken)
	g.DELETE("/notification-tokens/:device_id", h.unregisterToken)
}

func (h *NotificationHandler) RegisterAdminRoutes(admin *echo.Group) {
	admin.POST("/news", h.broadcastNews)
}

func (h *NotificationHandler) registerToken(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req usecase.RegisterTokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.RegisterToken(c.Request().Context(), userID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *NotificationHandler) unregisterToken(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	deviceID := c.Param("device_id")

	if err := h.uc.UnregisterToken(c.Request().Context(), userID, deviceID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *NotificationHandler) broadcastNews(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req BroadcastNewsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.AdminBroadcastNews(c.Request().Context(), adminID, req.Title, req.Body); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "published"})
}
