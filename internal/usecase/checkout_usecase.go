package usecase

import (
	"context"
	"net/http"
	"strconv"

	"app/internal/cart"
	"app/internal/domain/model"
)

// OrderGateway は注文作成のプラットフォーム窓口。
type OrderGateway interface {
	CreateOrder(ctx context.Context, req model.OrderRequest) (model.Order, error)
}

// CheckoutUsecase はカートの内容を注文に変換して送信する。
type CheckoutUsecase struct {
	carts  *cart.Registry
	orders OrderGateway
}

// DI
func NewCheckoutUsecase(carts *cart.Registry, orders OrderGateway) *CheckoutUsecase {
	return &CheckoutUsecase{carts: carts, orders: orders}
}

type CustomerInfo struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	City       string
	PostalCode string
	Country    string
	Notes      string
}

type CheckoutInput struct {
	Customer      CustomerInfo
	PaymentMethod string
	ShippingFee   float64
}

// PlaceOrder は注文を作成する。
// 成功したときだけカートを空にする。失敗時はカートを残す（再試行できるように）。
func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, clientKey string, in CheckoutInput) (model.Order, error) {
	if clientKey == "" {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "missing client id")
	}
	if err := validateCustomer(in.Customer); err != nil {
		return model.Order{}, err
	}

	store := u.carts.Get(ctx, clientKey)

	items := store.Items()
	if len(items) == 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	order, err := u.orders.CreateOrder(ctx, buildOrderRequest(in, items))
	if err != nil {
		return model.Order{}, upstreamError(err)
	}

	store.Clear(ctx)
	return order, nil
}

func validateCustomer(c CustomerInfo) error {
	if c.FirstName == "" {
		return NewHTTPError(http.StatusBadRequest, "first name is required")
	}
	if c.LastName == "" {
		return NewHTTPError(http.StatusBadRequest, "last name is required")
	}
	if !isEmailLike(c.Email) {
		return NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if c.Phone == "" {
		return NewHTTPError(http.StatusBadRequest, "phone is required")
	}
	if c.Address == "" {
		return NewHTTPError(http.StatusBadRequest, "address is required")
	}
	if c.City == "" {
		return NewHTTPError(http.StatusBadRequest, "city is required")
	}
	return nil
}

func buildOrderRequest(in CheckoutInput, items []model.CartLineItem) model.OrderRequest {
	country := in.Customer.Country
	if country == "" {
		country = "MR"
	}

	billing := model.OrderAddress{
		FirstName: in.Customer.FirstName,
		LastName:  in.Customer.LastName,
		Email:     in.Customer.Email,
		Phone:     in.Customer.Phone,
		Address1:  in.Customer.Address,
		City:      in.Customer.City,
		Postcode:  in.Customer.PostalCode,
		Country:   country,
	}

	shipping := billing
	shipping.Email = ""
	shipping.Phone = ""

	lineItems := make([]model.OrderLineItem, 0, len(items))
	for _, it := range items {
		lineItems = append(lineItems, model.OrderLineItem{
			ProductID: it.ID,
			Quantity:  it.Quantity,
			Name:      it.Name,
			Price:     model.ParsePrice(it.Price),
			Total:     strconv.FormatFloat(it.Total, 'f', -1, 64),
		})
	}

	method := "cod"
	methodTitle := "Paiement à la livraison"
	if in.PaymentMethod != "" && in.PaymentMethod != "cash" {
		method = in.PaymentMethod
		methodTitle = "Carte bancaire"
	}

	var shippingLines []model.ShippingLine
	if in.ShippingFee > 0 {
		shippingLines = []model.ShippingLine{{
			MethodID:    "flat_rate",
			MethodTitle: "Livraison standard",
			Total:       strconv.FormatFloat(in.ShippingFee, 'f', -1, 64),
		}}
	}

	return model.OrderRequest{
		Billing:            billing,
		Shipping:           shipping,
		LineItems:          lineItems,
		PaymentMethod:      method,
		PaymentMethodTitle: methodTitle,
		ShippingLines:      shippingLines,
		Status:             "processing",
		CustomerNote:       in.Customer.Notes,
		MetaData: []model.OrderMetaData{
			{Key: "_created_via", Value: "melhfa_storefront"},
			{Key: "_order_source", Value: "storefront_bff"},
		},
	}
}
