package model

import "strconv"

// カートの明細。
// price は追加時点のスナップショット（文字列のまま保持、以後は更新しない）。
type CartLineItem struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    string  `json:"price"`
	Image    string  `json:"image"`
	Quantity int64   `json:"quantity"`
	Total    float64 `json:"total"`
}

// カート全体。Total / ItemCount は Items からの導出値。
type CartState struct {
	Items     []CartLineItem `json:"items"`
	Total     float64        `json:"total"`
	ItemCount int64          `json:"itemCount"`
}

// 空のカート
func EmptyCart() CartState {
	return CartState{Items: []CartLineItem{}}
}

// ParsePrice は価格文字列を数値にする。壊れていたら0。
func ParsePrice(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Recalculate は各明細の小計と全体の合計・点数を明細から再計算する。
// ItemCount は明細数ではなく数量の合計。
func (c *CartState) Recalculate() {
	var total float64
	var count int64

	for i := range c.Items {
		it := &c.Items[i]
		it.Total = ParsePrice(it.Price) * float64(it.Quantity)
		total += it.Total
		count += it.Quantity
	}

	c.Total = total
	c.ItemCount = count
}

// Clone は独立したコピーを返す（呼び出し側で書き換えても本体に影響しない）。
func (c CartState) Clone() CartState {
	out := c
	out.Items = make([]CartLineItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}
