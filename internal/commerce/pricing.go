package commerce

import (
	"math"
	"strings"

	"app/internal/domain/model"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const DefaultCurrency = "MRU"

var frPrinter = message.NewPrinter(language.French)

// FormatPrice は表示用の価格文字列（フランス語圏の桁区切り + 通貨）。
// 価格が読めないときは "0 <通貨>"。
func FormatPrice(price string, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	n := model.ParsePrice(price)
	return frPrinter.Sprintf("%v %s", number.Decimal(n), currency)
}

// IsOnSale はセール中かどうか。
func IsOnSale(p model.Product) bool {
	return p.OnSale && p.SalePrice != ""
}

// EffectivePrice はカートに入れる価格。セール価格があればそちらを優先する。
func EffectivePrice(p model.Product) string {
	if IsOnSale(p) {
		return p.SalePrice
	}
	if p.Price != "" {
		return p.Price
	}
	return p.RegularPrice
}

// DiscountPercentage は割引率（%）。セール中でなければ0。
func DiscountPercentage(p model.Product) int {
	if !IsOnSale(p) {
		return 0
	}

	regular := model.ParsePrice(p.RegularPrice)
	sale := model.ParsePrice(p.SalePrice)
	if regular == 0 {
		return 0
	}

	return int(math.Round((regular - sale) / regular * 100))
}

// ProductImage は代表画像のURL。無ければプレースホルダ。
func ProductImage(p model.Product) string {
	if len(p.Images) > 0 {
		return p.Images[0].Src
	}
	return "/placeholder-product.jpg"
}

// ProductImages は全画像のURL。
func ProductImages(p model.Product) []string {
	out := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		out = append(out, img.Src)
	}
	return out
}

// 商品属性の色名 → 表示用カラーコード
var colorHexes = map[string]string{
	"blanc":       "#FFFFFF",
	"blanc cassé": "#F8F8FF",
	"beige":       "#F5F5DC",
	"crème":       "#FFFDD0",
	"ivoire":      "#FFFFF0",
	"noir":        "#000000",
	"gris":        "#808080",
	"bleu":        "#0000FF",
	"bleu marine": "#000080",
	"bleu ciel":   "#87CEEB",
	"rouge":       "#FF0000",
	"bordeaux":    "#800020",
	"rose":        "#FFC0CB",
	"vert":        "#008000",
	"vert olive":  "#808000",
	"jaune":       "#FFFF00",
	"orange":      "#FFA500",
	"violet":      "#800080",
	"marron":      "#A52A2A",
	"doré":        "#FFD700",
	"argenté":     "#C0C0C0",
	"multicolore": "#FF6B6B",
}

// ColorHex は色名からカラーコードを引く。未知の色はグレー。
func ColorHex(name string) string {
	if hex, ok := colorHexes[strings.ToLower(name)]; ok {
		return hex
	}
	return "#CCCCCC"
}
