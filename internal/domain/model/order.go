package model

// 注文の請求先/配送先
type OrderAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address1  string `json:"address_1"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
}

// 注文の明細行。price/total はカート追加時点のスナップショット由来。
type OrderLineItem struct {
	ProductID int64   `json:"product_id"`
	Quantity  int64   `json:"quantity"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Total     string  `json:"total"`
}

type ShippingLine struct {
	MethodID    string `json:"method_id"`
	MethodTitle string `json:"method_title"`
	Total       string `json:"total"`
}

type OrderMetaData struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// プラットフォームへ送る注文作成ペイロード
type OrderRequest struct {
	Billing            OrderAddress    `json:"billing"`
	Shipping           OrderAddress    `json:"shipping"`
	LineItems          []OrderLineItem `json:"line_items"`
	PaymentMethod      string          `json:"payment_method"`
	PaymentMethodTitle string          `json:"payment_method_title"`
	ShippingLines      []ShippingLine  `json:"shipping_lines,omitempty"`
	Status             string          `json:"status"`
	CustomerNote       string          `json:"customer_note,omitempty"`
	MetaData           []OrderMetaData `json:"meta_data,omitempty"`
}

// 注文作成の戻り
type Order struct {
	ID                 int64  `json:"id"`
	Number             string `json:"number"`
	Status             string `json:"status"`
	Total              string `json:"total"`
	DateCreated        string `json:"date_created"`
	PaymentMethodTitle string `json:"payment_method_title"`
}
