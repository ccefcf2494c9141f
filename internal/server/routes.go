package server

import (
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/config"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/middleware"

	"github.com/labstack/echo/v4"
)

func registerRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	//公開API（認証なし）
	h.Auth.RegisterPublicRoutes(e)
	h.Product.RegisterRoutes(e)
	h.Preference.RegisterRoutes(e)

	//ログイン必須
	authed := e.Group("")
	authed.Use(middleware.AuthJWT(cfg))

	h.Auth.RegisterProtectedRoutes(authed)
	h.Cart.RegisterRoutes(authed)
	h.Order.RegisterRoutes(authed)
	h.Delivery.RegisterRoutes(authed)
	h.Notification.RegisterRoutes(authed)

	//管理者のみ
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())

	h.AdminOrder.RegisterRoutes(admin)
	h.AdminProduct.RegisterRoutes(admin)
	h.Notification.RegisterAdminRoutes(admin)
}
