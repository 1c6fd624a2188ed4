package api

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"storefront-service/internal/catalog"
	"storefront-service/internal/domain"
	"storefront-service/internal/filter"
)

// browseDefaults is the initial browse selection, with the slider's upper
// bound widened when the catalog holds something pricier so an unfiltered
// listing never hides products.
func browseDefaults(cat *catalog.Store) domain.FilterState {
	state := filter.DefaultState()
	for _, p := range cat.All() {
		if p.EffectivePrice().GreaterThan(state.PriceRange.Max) {
			state.PriceRange.Max = p.EffectivePrice()
		}
	}
	return state
}

var errNegativePrice = errors.New("price bounds must not be negative")

// parseFilterQuery overlays the browse query parameters on base.
// category and color may repeat or hold comma-separated values; a category
// parameter replaces any pre-selected category.
func parseFilterQuery(q url.Values, base domain.FilterState) (domain.FilterState, error) {
	state := base

	if v := strings.TrimSpace(q.Get("q")); v != "" {
		state.SearchText = v
	}
	if vs := splitMulti(q["category"]); len(vs) > 0 {
		state.Categories = vs
	}
	if vs := splitMulti(q["color"]); len(vs) > 0 {
		state.Colors = vs
	}

	var err error
	if state.PriceRange.Min, err = parsePrice(q.Get("min_price"), "min_price", state.PriceRange.Min); err != nil {
		return state, err
	}
	if state.PriceRange.Max, err = parsePrice(q.Get("max_price"), "max_price", state.PriceRange.Max); err != nil {
		return state, err
	}

	if v := q.Get("sort"); v != "" {
		if state.Sort, err = filter.ParseSort(v); err != nil {
			return state, fmt.Errorf("invalid sort value %q. Allowed: featured, price-asc, price-desc, newest", v)
		}
	}
	return state, nil
}

func parsePrice(raw, name string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s format", name)
	}
	if d.IsNegative() {
		return fallback, fmt.Errorf("invalid %s: %w", name, errNegativePrice)
	}
	return d, nil
}

func splitMulti(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
