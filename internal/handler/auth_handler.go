package handler

import (
	"net/http"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	uc    *usecase.AuthUsecase
	prefs *usecase.PreferenceUsecase
}

func NewAuthHandler(uc *usecase.AuthUsecase, prefs *usecase.PreferenceUsecase) *AuthHandler {
	return &AuthHandler{uc: uc, prefs: prefs}
}

func (h *AuthHandler) RegisterPublicRoutes(e *echo.Echo) {
	e.POST("/auth/register", h.register)
	e.POST("/auth/login", h.login)
}

func (h *AuthHandler) RegisterProtectedRoutes(g *echo.Group) {
	g.GET("/auth/me", h.me)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req usecase.AuthRegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	res, err := h.uc.Register(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req usecase.AuthLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	res, err := h.uc.Login(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	//端末セッションにログインユーザーを紐づける。失敗してもログイン自体は成功
	if deviceID := c.Request().Header.Get(deviceIDHeader); deviceID != "" {
		_, _ = h.prefs.BindUser(c.Request().Context(), deviceID, res.User.ID, model.UserType(res.User.UserType))
	}

	return c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	res, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
