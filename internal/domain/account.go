package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultOrderStatus is reported for orders whose status column is NULL.
const DefaultOrderStatus = "Processing"

// User is a storefront account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     *string   `json:"full_name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Review is a customer's rating of a product.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"` // Pointer for nullable fields
	CreatedAt time.Time `json:"created_at"`
}

// WishlistEntry records that a user saved a product.
type WishlistEntry struct {
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderItem is a line of an order, copied from the cart at checkout.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Order is a placed order as recorded by the hosted data service.
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	Items       []OrderItem     `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ItemsJSON encodes Items for a JSONB column.
func (o *Order) ItemsJSON() ([]byte, error) {
	if o.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(o.Items)
}
