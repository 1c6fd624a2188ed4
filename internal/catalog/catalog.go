// Package catalog holds the static product catalog and its read-only queries.
package catalog

import (
	"sort"

	"github.com/shopspring/decimal"

	"storefront-service/internal/domain"
)

// Store is a read-only view over a fixed product list.
// Every query returns a fresh slice; callers may modify results freely.
type Store struct {
	products []domain.Product
}

// New builds a Store over products. The slice is copied.
func New(products []domain.Product) *Store {
	cp := make([]domain.Product, len(products))
	copy(cp, products)
	return &Store{products: cp}
}

// Default returns the Store backed by the built-in sample catalog.
func Default() *Store {
	return New(sampleProducts())
}

// All returns every product in catalog order.
func (s *Store) All() []domain.Product {
	return s.where(func(domain.Product) bool { return true })
}

// GetByID returns the product with the given id; ok is false on a miss.
func (s *Store) GetByID(id string) (domain.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *Store) Featured() []domain.Product {
	return s.where(func(p domain.Product) bool { return p.IsFeatured })
}

func (s *Store) New() []domain.Product {
	return s.where(func(p domain.Product) bool { return p.IsNew })
}

// ByCategory matches the category name exactly.
func (s *Store) ByCategory(category string) []domain.Product {
	return s.where(func(p domain.Product) bool { return p.Category == category })
}

// Categories lists distinct categories in catalog order.
func (s *Store) Categories() []string {
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, p := range s.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories
}

// Colors lists distinct colors, sorted.
func (s *Store) Colors() []string {
	seen := make(map[string]struct{})
	colors := make([]string, 0)
	for _, p := range s.products {
		for _, c := range p.Colors {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			colors = append(colors, c)
		}
	}
	sort.Strings(colors)
	return colors
}

func (s *Store) where(keep func(domain.Product) bool) []domain.Product {
	out := make([]domain.Product, 0)
	for _, p := range s.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func salePrice(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}
