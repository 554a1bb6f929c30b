package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// ブラウザプロファイル識別クッキー。カートのスロットはこの値でスコープされる。
	ClientCookieName = "melhfa_client"

	CtxClientKey = "cart_client" // string
)

// ClientID はクライアント識別クッキーを保証するミドルウェア。
// 無ければ発行する。リロードやタブをまたいでも同じカートにつながる。
func ClientID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var key string

			if cookie, err := c.Cookie(ClientCookieName); err == nil && cookie.Value != "" {
				key = cookie.Value
			} else {
				key = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     ClientCookieName,
					Value:    key,
					Path:     "/",
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(CtxClientKey, key)
			return next(c)
		}
	}
}

// GetClientKey はコンテキストからクライアントキーを取り出す。
func GetClientKey(c echo.Context) (string, bool) {
	key, ok := c.Get(CtxClientKey).(string)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
