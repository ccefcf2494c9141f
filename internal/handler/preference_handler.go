package handler

import (
	"net/http"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 端末セッション設定のHTTP。device_idはヘッダーで受ける。
type PreferenceHandler struct {
	uc *usecase.PreferenceUsecase
}

func NewPreferenceHandler(uc *usecase.PreferenceUsecase) *PreferenceHandler {
	return &PreferenceHandler{uc: uc}
}

const deviceIDHeader = "X-Device-ID"

func (h *PreferenceHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/preferences", h.get)
	e.PATCH("/preferences", h.update)
	e.DELETE("/preferences", h.reset)
	e.GET("/preferences/stream", h.stream)
}

func (h *PreferenceHandler) get(c echo.Context) error {
	deviceID := c.Request().Header.Get(deviceIDHeader)

	out, err := h.uc.Get(c.Request().Context(), deviceID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PreferenceHandler) update(c echo.Context) error {
	deviceID := c.Request().Header.Get(deviceIDHeader)

	var req usecase.UpdatePreferencesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Update(c.Request().Context(), deviceID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PreferenceHandler) reset(c echo.Context) error {
	deviceID := c.Request().Header.Get(deviceIDHeader)

	if err := h.uc.Reset(c.Request().Context(), deviceID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "reset"})
}

// 設定変更のSSE
func (h *PreferenceHandler) stream(c echo.Context) error {
	deviceID := c.Request().Header.Get(deviceIDHeader)

	ch, cancel, err := h.uc.Watch(c.Request().Context(), deviceID)
	if err != nil {
		return writeError(c, err)
	}
	return streamJSON(c, ch, cancel)
}
