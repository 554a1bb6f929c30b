package server

import (
	"net/http"

	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Handlers はルート登録に必要な一式。
type Handlers struct {
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Auth     *handler.AuthHandler

	ClientMW echo.MiddlewareFunc
	AuthMW   echo.MiddlewareFunc
}

// New はechoサーバを組み立てる。ルートはここで全部つながる。
func New(cfg config.Config, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	if cfg.GoEnv != "prod" {
		e.Use(echomw.Logger())
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FEURL},
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Product.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, h.ClientMW)
	h.Checkout.RegisterRoutes(e, h.ClientMW)
	h.Auth.RegisterRoutes(e, h.AuthMW)

	return e
}
