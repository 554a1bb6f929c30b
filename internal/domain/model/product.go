package model

// 在庫ステータス（WooCommerceの値そのまま）
const (
	StockInStock     = "instock"
	StockOutOfStock  = "outofstock"
	StockOnBackorder = "onbackorder"
)

const StatusPublish = "publish"

type ProductImage struct {
	ID   int64  `json:"id"`
	Src  string `json:"src"`
	Name string `json:"name"`
	Alt  string `json:"alt"`
}

type ProductCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ProductAttribute struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Position  int64    `json:"position"`
	Visible   bool     `json:"visible"`
	Variation bool     `json:"variation"`
	Options   []string `json:"options"`
}

// WooCommerce の商品。価格系はAPIの仕様どおり文字列。
type Product struct {
	ID               int64              `json:"id"`
	Name             string             `json:"name"`
	Slug             string             `json:"slug"`
	Type             string             `json:"type"`
	Status           string             `json:"status"`
	Featured         bool               `json:"featured"`
	Description      string             `json:"description"`
	ShortDescription string             `json:"short_description"`
	SKU              string             `json:"sku"`
	Price            string             `json:"price"`
	RegularPrice     string             `json:"regular_price"`
	SalePrice        string             `json:"sale_price"`
	OnSale           bool               `json:"on_sale"`
	Purchasable      bool               `json:"purchasable"`
	StockQuantity    *int64             `json:"stock_quantity"`
	StockStatus      string             `json:"stock_status"`
	AverageRating    string             `json:"average_rating"`
	RatingCount      int64              `json:"rating_count"`
	RelatedIDs       []int64            `json:"related_ids"`
	Categories       []ProductCategory  `json:"categories"`
	Images           []ProductImage     `json:"images"`
	Attributes       []ProductAttribute `json:"attributes"`
}
