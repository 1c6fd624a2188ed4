package cart

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storefront-service/internal/domain"
)

// record is the durable shape of a cart line.
type record struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price"`
	Quantity json.RawMessage `json:"quantity"`
}

func encode(lines []domain.CartLine) ([]byte, error) {
	records := make([]record, len(lines))
	for i, l := range lines {
		records[i] = record{
			ID:       l.ProductID,
			Name:     l.Name,
			Price:    json.RawMessage(l.UnitPrice.String()),
			Quantity: json.RawMessage(strconv.Itoa(l.Quantity)),
		}
	}
	return json.Marshal(records)
}

// decode parses a persisted cart. A non-numeric price loads as zero. Lines
// without an id, or whose quantity is not a positive whole number, are
// dropped. A repeated id is merged into the first occurrence.
func decode(data []byte) ([]domain.CartLine, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	lines := make([]domain.CartLine, 0, len(records))
	index := make(map[string]int, len(records))
	for _, r := range records {
		quantity := parseQuantity(r.Quantity)
		if strings.TrimSpace(r.ID) == "" || quantity <= 0 {
			continue
		}
		if i, ok := index[r.ID]; ok {
			lines[i].Quantity += quantity
			continue
		}
		index[r.ID] = len(lines)
		lines = append(lines, domain.CartLine{
			ProductID: r.ID,
			Name:      r.Name,
			UnitPrice: parsePrice(r.Price),
			Quantity:  quantity,
		})
	}
	return lines, nil
}

// parsePrice accepts a JSON number or a numeric JSON string.
func parsePrice(raw json.RawMessage) decimal.Decimal {
	d, ok := parseNumber(raw)
	if !ok {
		return decimal.Zero
	}
	return d
}

// parseQuantity accepts a whole JSON number or numeric JSON string. Anything
// else is 0.
func parseQuantity(raw json.RawMessage) int {
	d, ok := parseNumber(raw)
	if !ok || !d.IsInteger() || d.GreaterThan(maxQuantity) {
		return 0
	}
	return int(d.IntPart())
}

var maxQuantity = decimal.NewFromInt(math.MaxInt32)

func parseNumber(raw json.RawMessage) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return decimal.Zero, false
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, false
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
