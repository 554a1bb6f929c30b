package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// /cart 配下を登録。クライアント識別クッキーが必須。
func (h *CartHandler) RegisterRoutes(e *echo.Echo, clientMW echo.MiddlewareFunc) {
	g := e.Group("/cart", clientMW)

	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.DELETE("", h.clearCart)
	g.PATCH("/items/:id", h.patchItem)
	g.DELETE("/items/:id", h.deleteItem)
	g.GET("/events", h.events)
}

func (h *CartHandler) getCart(c echo.Context) error {
	key, ok := middleware.GetClientKey(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing client id"})
	}

	out, err := h.uc.GetCart(c.Request().Context(), key)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	key, ok := middleware.GetClientKey(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing client id"})
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddToCart(c.Request().Context(), key, usecase.AddCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	key, ok := middleware.GetClientKey(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing client id"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateItem(c.Request().Context(), key, id, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	key, ok := middleware.GetClientKey(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing client id"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), key, id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clearCart(c echo.Context) error {
	key, ok := middleware.GetClientKey(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing client id"})
	}

	out, err := h.uc.ClearCart(c.Request().Context(), key)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// events はカート変更をSSEで流す。
// ペイロードは運ばない。受け取った側は GET /cart で読み直す。
func (h *CartHandler) events(c echo.Context) error {
	key, ok := middleware.GetClientKey(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing client id"})
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	ch := make(chan struct{}, 1)
	unsubscribe := h.uc.Subscribe(c.Request().Context(), key, func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	// 接続直後に1回流す（現在状態を読みにいかせる）
	if err := writeCartEvent(res); err != nil {
		return nil
	}

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-ch:
			if err := writeCartEvent(res); err != nil {
				return nil
			}
		}
	}
}

func writeCartEvent(res *echo.Response) error {
	if _, err := fmt.Fprint(res, "event: cartUpdated\ndata: {}\n\n"); err != nil {
		return err
	}
	res.Flush()
	return nil
}
