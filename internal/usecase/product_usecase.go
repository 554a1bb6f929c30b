package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"app/internal/commerce"
	"app/internal/domain/model"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// プラットフォーム呼び出しの失敗をHTTPエラーへ変換する。
// プラットフォームが返したメッセージはそのまま利用者へ見せる。
func upstreamError(err error) error {
	if ae, ok := commerce.AsAPIError(err); ok {
		return NewHTTPError(http.StatusBadGateway, ae.Message)
	}
	return NewHTTPError(http.StatusBadGateway, "platform unreachable")
}

// ProductCatalog は商品読み出しのプラットフォーム窓口。
type ProductCatalog interface {
	ListProducts(ctx context.Context, q commerce.ProductQuery) ([]model.Product, error)
	ProductByID(ctx context.Context, id int64) (model.Product, error)
	ProductBySlug(ctx context.Context, slug string) (model.Product, error)
}

type ProductUsecase struct {
	catalog ProductCatalog
}

// DI
func NewProductUsecase(catalog ProductCatalog) *ProductUsecase {
	return &ProductUsecase{catalog: catalog}
}

type ListProductsInput struct {
	Page     int
	Limit    int
	Category string
	Search   string
	OrderBy  string
	Order    string
	OnSale   bool
	Featured bool
}

// 一覧用の商品。価格表示とセール情報を済ませて返す。
type ProductSummary struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	Price           string `json:"price"`
	RegularPrice    string `json:"regular_price"`
	SalePrice       string `json:"sale_price"`
	PriceLabel      string `json:"price_label"`
	OnSale          bool   `json:"on_sale"`
	DiscountPercent int    `json:"discount_percent"`
	Image           string `json:"image"`
	StockStatus     string `json:"stock_status"`
	Featured        bool   `json:"featured"`
}

// 詳細は商品をそのまま + 表示用の整形
type ProductDetailOutput struct {
	model.Product
	PriceLabel      string `json:"price_label"`
	DiscountPercent int    `json:"discount_percent"`
}

// ListPublicProducts は公開商品の一覧。
func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) ([]ProductSummary, error) {
	if in.Page < 1 {
		return []ProductSummary{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return []ProductSummary{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	items, err := u.catalog.ListProducts(ctx, commerce.ProductQuery{
		Page:     in.Page,
		PerPage:  in.Limit,
		Category: in.Category,
		Search:   in.Search,
		OrderBy:  in.OrderBy,
		Order:    in.Order,
		OnSale:   in.OnSale,
		Featured: in.Featured,
	})
	if err != nil {
		return []ProductSummary{}, upstreamError(err)
	}

	out := make([]ProductSummary, 0, len(items))
	for _, p := range items {
		out = append(out, ProductSummary{
			ID:              p.ID,
			Name:            p.Name,
			Slug:            p.Slug,
			Price:           p.Price,
			RegularPrice:    p.RegularPrice,
			SalePrice:       p.SalePrice,
			PriceLabel:      commerce.FormatPrice(commerce.EffectivePrice(p), ""),
			OnSale:          commerce.IsOnSale(p),
			DiscountPercent: commerce.DiscountPercentage(p),
			Image:           commerce.ProductImage(p),
			StockStatus:     p.StockStatus,
			Featured:        p.Featured,
		})
	}

	return out, nil
}

// GetProduct はIDで商品詳細を返す。
func (u *ProductUsecase) GetProduct(ctx context.Context, productID int64) (ProductDetailOutput, error) {
	if productID <= 0 {
		return ProductDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := u.catalog.ProductByID(ctx, productID)
	if errors.Is(err, commerce.ErrNotFound) {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductDetailOutput{}, upstreamError(err)
	}

	return buildDetail(p), nil
}

// GetProductBySlug はスラッグで商品詳細を返す。
func (u *ProductUsecase) GetProductBySlug(ctx context.Context, slug string) (ProductDetailOutput, error) {
	if slug == "" {
		return ProductDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid slug")
	}

	p, err := u.catalog.ProductBySlug(ctx, slug)
	if errors.Is(err, commerce.ErrNotFound) {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductDetailOutput{}, upstreamError(err)
	}

	return buildDetail(p), nil
}

func buildDetail(p model.Product) ProductDetailOutput {
	return ProductDetailOutput{
		Product:         p,
		PriceLabel:      commerce.FormatPrice(commerce.EffectivePrice(p), ""),
		DiscountPercent: commerce.DiscountPercentage(p),
	}
}
