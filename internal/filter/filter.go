// Package filter derives the displayed product list from a catalog and a FilterState.
package filter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"storefront-service/internal/domain"
)

// DefaultMaxPrice is the upper bound of the browse price slider.
var DefaultMaxPrice = decimal.NewFromInt(300)

var ErrUnknownSort = errors.New("filter: unknown sort option")

// DefaultState is the browse page's initial selection.
func DefaultState() domain.FilterState {
	return domain.FilterState{
		PriceRange: domain.PriceRange{Min: decimal.Zero, Max: DefaultMaxPrice},
		Sort:       domain.SortFeatured,
	}
}

// ParseSort maps a sort query value to a SortOption. Empty means featured.
func ParseSort(v string) (domain.SortOption, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", string(domain.SortFeatured):
		return domain.SortFeatured, nil
	case string(domain.SortPriceAsc), "price-low-high":
		return domain.SortPriceAsc, nil
	case string(domain.SortPriceDesc), "price-high-low":
		return domain.SortPriceDesc, nil
	case string(domain.SortNewest):
		return domain.SortNewest, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSort, v)
}

// Apply runs the text, category, price and color filters in that order and
// then stable-sorts the survivors. products is not modified.
func Apply(products []domain.Product, state domain.FilterState) []domain.Product {
	out := make([]domain.Product, 0, len(products))

	// Matched as typed; whitespace is significant.
	search := strings.ToLower(state.SearchText)
	categories := lowerSet(state.Categories)
	colors := lowerSet(state.Colors)

	for _, p := range products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Category), search) {
			continue
		}
		if len(categories) > 0 {
			if _, ok := categories[strings.ToLower(p.Category)]; !ok {
				continue
			}
		}
		price := p.EffectivePrice()
		if price.LessThan(state.PriceRange.Min) || price.GreaterThan(state.PriceRange.Max) {
			continue
		}
		if len(colors) > 0 && !anyColor(p.Colors, colors) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, less(out, state.Sort))
	return out
}

func less(ps []domain.Product, option domain.SortOption) func(i, j int) bool {
	switch option {
	case domain.SortPriceAsc:
		return func(i, j int) bool { return ps[i].EffectivePrice().LessThan(ps[j].EffectivePrice()) }
	case domain.SortPriceDesc:
		return func(i, j int) bool { return ps[i].EffectivePrice().GreaterThan(ps[j].EffectivePrice()) }
	case domain.SortNewest:
		return func(i, j int) bool { return ps[i].IsNew && !ps[j].IsNew }
	default:
		return func(i, j int) bool { return ps[i].IsFeatured && !ps[j].IsFeatured }
	}
}

func anyColor(productColors []string, selected map[string]struct{}) bool {
	for _, c := range productColors {
		if _, ok := selected[strings.ToLower(c)]; ok {
			return true
		}
	}
	return false
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
