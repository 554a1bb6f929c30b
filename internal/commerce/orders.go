package commerce

import (
	"context"

	"app/internal/domain/model"
)

// CreateOrder は注文を作成する。失敗時のメッセージはプラットフォームのものをそのまま運ぶ。
func (c *Client) CreateOrder(ctx context.Context, req model.OrderRequest) (model.Order, error) {
	var order model.Order
	if err := c.post(ctx, "/wp-json/wc/v3/orders", req, &order); err != nil {
		return model.Order{}, err
	}
	return order, nil
}
