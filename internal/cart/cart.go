// Package cart holds a session's shopping cart and mirrors it to durable storage.
package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-service/internal/domain"
)

// Cart is an ordered set of lines, at most one per product.
// Every mutation writes the whole cart back to storage. Storage failures are
// logged and otherwise ignored: the in-memory lines stay authoritative.
type Cart struct {
	mu      sync.Mutex
	lines   []domain.CartLine
	storage Storage
	logger  *zap.Logger
}

// New rehydrates a cart from storage. Missing or unreadable data yields an
// empty cart; New never fails.
func New(ctx context.Context, storage Storage, logger *zap.Logger) *Cart {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cart{storage: storage, logger: logger, lines: make([]domain.CartLine, 0)}

	data, err := storage.Load(ctx, StorageKey)
	switch {
	case errors.Is(err, ErrNotFound):
		return c
	case err != nil:
		logger.Warn("cart storage unavailable, starting empty", zap.Error(err))
		return c
	}

	lines, err := decode(data)
	if err != nil {
		logger.Warn("discarding unreadable persisted cart", zap.Error(err))
		return c
	}
	c.lines = lines
	return c
}

// AddItem merges quantity into the existing line for productID or appends a
// new line. A merged line that drops to zero or below is removed; a new line
// is only created for a positive quantity.
func (c *Cart) AddItem(ctx context.Context, productID, name string, unitPrice decimal.Decimal, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(productID); i >= 0 {
		c.setLocked(i, c.lines[i].Quantity+quantity)
	} else if quantity > 0 {
		c.lines = append(c.lines, domain.CartLine{
			ProductID: productID,
			Name:      name,
			UnitPrice: unitPrice,
			Quantity:  quantity,
		})
	} else {
		return
	}
	c.persistLocked(ctx)
}

// RemoveItem deletes the line for productID. Unknown ids are a no-op.
func (c *Cart) RemoveItem(ctx context.Context, productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.removeLocked(i)
	c.persistLocked(ctx)
}

// SetQuantity replaces the quantity of an existing line. quantity <= 0 removes it.
func (c *Cart) SetQuantity(ctx context.Context, productID string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.setLocked(i, quantity)
	c.persistLocked(ctx)
}

// Decrement lowers a line's quantity by one, removing it at zero.
func (c *Cart) Decrement(ctx context.Context, productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.setLocked(i, c.lines[i].Quantity-1)
	c.persistLocked(ctx)
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = make([]domain.CartLine, 0)
	c.persistLocked(ctx)
}

// RemoveLines subtracts the ordered quantities from the matching lines,
// dropping lines that reach zero. Units added after ordered was taken stay in
// the cart; lines no longer present are skipped.
func (c *Cart) RemoveLines(ctx context.Context, ordered []domain.CartLine) {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := false
	for _, o := range ordered {
		i := c.indexOf(o.ProductID)
		if i < 0 || o.Quantity <= 0 {
			continue
		}
		c.setLocked(i, c.lines[i].Quantity-o.Quantity)
		changed = true
	}
	if changed {
		c.persistLocked(ctx)
	}
}

// Rebind moves the cart to storage: the previous storage is emptied and the
// current lines are written to the new one.
func (c *Cart) Rebind(ctx context.Context, storage Storage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := c.lines
	c.lines = make([]domain.CartLine, 0)
	c.persistLocked(ctx)

	c.lines = lines
	c.storage = storage
	c.persistLocked(ctx)
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Total is the sum of unit price x quantity over all lines; zero when empty.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) indexOf(productID string) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) setLocked(i, quantity int) {
	if quantity <= 0 {
		c.removeLocked(i)
		return
	}
	c.lines[i].Quantity = quantity
}

func (c *Cart) removeLocked(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

func (c *Cart) persistLocked(ctx context.Context) {
	data, err := encode(c.lines)
	if err != nil {
		c.logger.Error("failed to encode cart", zap.Error(err))
		return
	}
	if err := c.storage.Save(ctx, StorageKey, data); err != nil {
		c.logger.Warn("failed to persist cart", zap.Error(err), zap.Int("lines", len(c.lines)))
	}
}
