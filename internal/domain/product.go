package domain

import (
	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog.
// The json tags correspond to the fields expected in API responses.
type Product struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Category   string           `json:"category"`
	Price      decimal.Decimal  `json:"price"`
	SalePrice  *decimal.Decimal `json:"sale_price,omitempty"` // nil when the product is not on sale
	ImageURL   string           `json:"image_url"`
	Colors     []string         `json:"colors"`
	IsNew      bool             `json:"is_new"`
	IsFeatured bool             `json:"is_featured"`
}

// EffectivePrice is the sale price when one is set, the list price otherwise.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// OnSale reports whether the product carries a sale price.
func (p Product) OnSale() bool {
	return p.SalePrice != nil
}

// SortOption selects the ordering of a filtered product list.
type SortOption string

const (
	SortFeatured  SortOption = "featured"
	SortPriceAsc  SortOption = "price-asc"
	SortPriceDesc SortOption = "price-desc"
	SortNewest    SortOption = "newest"
)

// PriceRange is an inclusive range over effective prices.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// FilterState holds the browse selections used to derive a displayed product list.
// Category and color selections are matched case-insensitively.
type FilterState struct {
	SearchText string     `json:"search_text"`
	Categories []string   `json:"categories"`
	Colors     []string   `json:"colors"`
	PriceRange PriceRange `json:"price_range"`
	Sort       SortOption `json:"sort"`
}
