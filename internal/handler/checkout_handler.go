package handler

import (
	"net/http"

	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /checkoutのHTTP。ゲスト購入もあるので認証は要らない。
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

// DI
func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type CheckoutCustomerRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Notes      string `json:"notes"`
}

type CheckoutRequest struct {
	CustomerInfo  CheckoutCustomerRequest `json:"customerInfo"`
	PaymentMethod string                  `json:"paymentMethod"`
	Shipping      float64                 `json:"shipping"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, clientMW echo.MiddlewareFunc) {
	e.POST("/checkout", h.placeOrder, clientMW)
}

func (h *CheckoutHandler) placeOrder(c echo.Context) error {
	key, ok := middleware.GetClientKey(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing client id"})
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), key, usecase.CheckoutInput{
		Customer: usecase.CustomerInfo{
			FirstName:  req.CustomerInfo.FirstName,
			LastName:   req.CustomerInfo.LastName,
			Email:      req.CustomerInfo.Email,
			Phone:      req.CustomerInfo.Phone,
			Address:    req.CustomerInfo.Address,
			City:       req.CustomerInfo.City,
			PostalCode: req.CustomerInfo.PostalCode,
			Country:    req.CustomerInfo.Country,
			Notes:      req.CustomerInfo.Notes,
		},
		PaymentMethod: req.PaymentMethod,
		ShippingFee:   req.Shipping,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}
