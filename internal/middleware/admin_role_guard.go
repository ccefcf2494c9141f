package middleware

import (
	"net/http"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"

	"github.com/labstack/echo/v4"
)

//contextに入っているuser_typeがADMINかどうかを確認します。

func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawType := c.Get(CtxUserTypeKey)
			userType, ok := rawType.(string)
			if !ok || userType == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//CUSTOMERは拒否、ADMINだけ許可
			if userType != string(model.UserTypeAdmin) {
				return c.JSON(http.StatusForbidden, errorJSON("admin only"))
			}

			return next(c)
		}
	}
}
