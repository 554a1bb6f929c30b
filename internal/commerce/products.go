package commerce

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"app/internal/domain/model"
)

// 商品一覧の絞り込み。ゼロ値は page=1 / per_page=20 になる。
type ProductQuery struct {
	Page     int
	PerPage  int
	Category string
	Search   string
	OrderBy  string
	Order    string
	OnSale   bool
	Featured bool
}

// ListProducts は公開中の商品を取得する。
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) ([]model.Product, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 20
	}

	v := url.Values{}
	v.Set("status", model.StatusPublish)
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per_page", strconv.Itoa(q.PerPage))

	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.OrderBy != "" {
		v.Set("orderby", q.OrderBy)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.OnSale {
		v.Set("on_sale", "true")
	}
	if q.Featured {
		v.Set("featured", "true")
	}

	var items []model.Product
	if err := c.get(ctx, "/wp-json/wc/v3/products", v, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ProductByID は商品1件を取得する。無ければ ErrNotFound。
func (c *Client) ProductByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product

	err := c.get(ctx, fmt.Sprintf("/wp-json/wc/v3/products/%d", id), nil, &p)
	if ae, ok := AsAPIError(err); ok && ae.Status == 404 {
		return model.Product{}, ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// ProductBySlug はスラッグで商品1件を取得する。無ければ ErrNotFound。
func (c *Client) ProductBySlug(ctx context.Context, slug string) (model.Product, error) {
	v := url.Values{}
	v.Set("slug", slug)
	v.Set("status", model.StatusPublish)

	var items []model.Product
	if err := c.get(ctx, "/wp-json/wc/v3/products", v, &items); err != nil {
		return model.Product{}, err
	}
	if len(items) == 0 {
		return model.Product{}, ErrNotFound
	}
	return items[0], nil
}

// FeaturedProducts はおすすめ商品（新着順）。
func (c *Client) FeaturedProducts(ctx context.Context, limit int) ([]model.Product, error) {
	if limit < 1 {
		limit = 6
	}
	return c.ListProducts(ctx, ProductQuery{
		Featured: true,
		PerPage:  limit,
		OrderBy:  "date",
		Order:    "desc",
	})
}

// SaleProducts はセール中の商品（新着順）。
func (c *Client) SaleProducts(ctx context.Context, limit int) ([]model.Product, error) {
	if limit < 1 {
		limit = 6
	}
	return c.ListProducts(ctx, ProductQuery{
		OnSale:  true,
		PerPage: limit,
		OrderBy: "date",
		Order:   "desc",
	})
}
