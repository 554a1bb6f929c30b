package usecase

import (
	"context"
	"errors"
	"net/http"

	"app/internal/cart"
	"app/internal/commerce"
	"app/internal/domain/model"
)

// CartUsecase は /cart の業務ロジック。
// カート状態そのものは cart.Store が持ち、ここでは商品の検証と
// スナップショット（名前・価格・画像）の確定だけを行う。
type CartUsecase struct {
	carts   *cart.Registry
	catalog ProductCatalog
}

// DI
func NewCartUsecase(carts *cart.Registry, catalog ProductCatalog) *CartUsecase {
	return &CartUsecase{carts: carts, catalog: catalog}
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

// GetCart はカートの現在状態を返す。
func (u *CartUsecase) GetCart(ctx context.Context, clientKey string) (model.CartState, error) {
	if clientKey == "" {
		return model.CartState{}, NewHTTPError(http.StatusBadRequest, "missing client id")
	}
	return u.carts.Get(ctx, clientKey).State(), nil
}

// AddToCart はカートに追加する。同一商品は数量加算。
// 価格は追加時点のスナップショット（セール価格優先）で、既にある明細の価格は変えない。
func (u *CartUsecase) AddToCart(ctx context.Context, clientKey string, in AddCartInput) (model.CartState, error) {
	if clientKey == "" {
		return model.CartState{}, NewHTTPError(http.StatusBadRequest, "missing client id")
	}
	if in.ProductID <= 0 {
		return model.CartState{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	p, err := u.catalog.ProductByID(ctx, in.ProductID)
	if errors.Is(err, commerce.ErrNotFound) {
		return model.CartState{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if err != nil {
		return model.CartState{}, upstreamError(err)
	}
	if p.Status != model.StatusPublish {
		return model.CartState{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if p.StockStatus == model.StockOutOfStock {
		return model.CartState{}, NewHTTPError(http.StatusBadRequest, "out of stock")
	}

	store := u.carts.Get(ctx, clientKey)

	// 数量0以下はStore側で「1個の追加」になる
	store.Add(ctx, cart.AddInput{
		ID:    p.ID,
		Name:  p.Name,
		Price: commerce.EffectivePrice(p),
		Image: commerce.ProductImage(p),
	}, in.Quantity)

	return store.State(), nil
}

// UpdateItem は数量を置き換える。0以下は削除。明細が無ければ何もしない。
func (u *CartUsecase) UpdateItem(ctx context.Context, clientKey string, productID int64, quantity int64) (model.CartState, error) {
	if clientKey == "" {
		return model.CartState{}, NewHTTPError(http.StatusBadRequest, "missing client id")
	}
	if productID <= 0 {
		return model.CartState{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	store := u.carts.Get(ctx, clientKey)
	store.SetQuantity(ctx, productID, quantity)

	return store.State(), nil
}

// RemoveItem は明細を削除する。無ければ何もしない。
func (u *CartUsecase) RemoveItem(ctx context.Context, clientKey string, productID int64) (model.CartState, error) {
	if clientKey == "" {
		return model.CartState{}, NewHTTPError(http.StatusBadRequest, "missing client id")
	}
	if productID <= 0 {
		return model.CartState{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	store := u.carts.Get(ctx, clientKey)
	store.Remove(ctx, productID)

	return store.State(), nil
}

// ClearCart はカートを空にする。
func (u *CartUsecase) ClearCart(ctx context.Context, clientKey string) (model.CartState, error) {
	if clientKey == "" {
		return model.CartState{}, NewHTTPError(http.StatusBadRequest, "missing client id")
	}

	store := u.carts.Get(ctx, clientKey)
	store.Clear(ctx)

	return store.State(), nil
}

// Subscribe はカート変更の購読（SSE用）。戻りの func で解除。
func (u *CartUsecase) Subscribe(ctx context.Context, clientKey string, fn func()) func() {
	return u.carts.Get(ctx, clientKey).Subscribe(fn)
}
