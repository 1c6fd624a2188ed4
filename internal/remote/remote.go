// Package remote wraps calls to the hosted data service behind the
// capabilities the storefront consumes. Every call is made once; failures are
// returned to the caller unchanged in kind and never retried.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

var (
	ErrInvalidRating = errors.New("remote: rating must be between 1 and 5")
	ErrEmptyOrder    = errors.New("remote: cannot place an order without items")
	ErrOrderNotFound = errors.New("remote: order not found")
	ErrUnavailable   = errors.New("remote: data service unavailable")
)

const (
	MinRating = 1
	MaxRating = 5
)

// Wishlist is the wishlist capability.
type Wishlist interface {
	IsWishlisted(ctx context.Context, userID, productID string) (bool, error)
	// Toggle flips the wishlist state and returns the new state.
	Toggle(ctx context.Context, userID, productID string) (bool, error)
	List(ctx context.Context, userID string) ([]string, error)
}

// Reviews is the review capability.
type Reviews interface {
	ListReviews(ctx context.Context, productID string) ([]domain.Review, error)
	SubmitReview(ctx context.Context, userID, productID string, rating int, text *string) (*domain.Review, error)
}

// Orders is the order history and checkout capability.
type Orders interface {
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
	PlaceOrder(ctx context.Context, userID string, lines []domain.CartLine, currency string) (*domain.Order, error)
}

// Client implements Wishlist, Reviews and Orders over the store.
type Client struct {
	wishlist store.WishlistStorer
	reviews  store.ReviewStorer
	orders   store.OrderStorer
	logger   *zap.Logger
}

var (
	_ Wishlist = (*Client)(nil)
	_ Reviews  = (*Client)(nil)
	_ Orders   = (*Client)(nil)
)

func NewClient(ws store.WishlistStorer, rs store.ReviewStorer, ors store.OrderStorer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{wishlist: ws, reviews: rs, orders: ors, logger: logger}
}

// unavailable marks an unexpected store failure so callers can tell it apart
// from a rejected request.
func (c *Client) unavailable(op string, err error) error {
	c.logger.Error("data service call failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func (c *Client) IsWishlisted(ctx context.Context, userID, productID string) (bool, error) {
	const op = "Client.IsWishlisted"

	ok, err := c.wishlist.WishlistExists(ctx, userID, productID)
	if err != nil {
		return false, c.unavailable(op, err)
	}
	return ok, nil
}

func (c *Client) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	const op = "Client.Toggle"

	exists, err := c.wishlist.WishlistExists(ctx, userID, productID)
	if err != nil {
		return false, c.unavailable(op, err)
	}

	if exists {
		err := c.wishlist.RemoveWishlistEntry(ctx, userID, productID)
		switch {
		case err == nil, errors.Is(err, store.ErrWishlistEntryNotFound):
			// Removed here or by a concurrent request; either way it is gone.
			return false, nil
		default:
			return true, c.unavailable(op, err)
		}
	}

	_, err = c.wishlist.AddWishlistEntry(ctx, userID, productID)
	switch {
	case err == nil, errors.Is(err, store.ErrWishlistEntryExists):
		return true, nil
	default:
		return false, c.unavailable(op, err)
	}
}

func (c *Client) List(ctx context.Context, userID string) ([]string, error) {
	const op = "Client.List"

	entries, err := c.wishlist.ListWishlist(ctx, userID)
	if err != nil {
		return nil, c.unavailable(op, err)
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ProductID
	}
	return ids, nil
}

func (c *Client) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	const op = "Client.ListReviews"

	reviews, err := c.reviews.ListReviewsByProduct(ctx, productID)
	if err != nil {
		return nil, c.unavailable(op, err)
	}
	return reviews, nil
}

// SubmitReview stores a review. Blank text is stored as no comment.
func (c *Client) SubmitReview(ctx context.Context, userID, productID string, rating int, text *string) (*domain.Review, error) {
	const op = "Client.SubmitReview"

	if rating < MinRating || rating > MaxRating {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRating)
	}

	var comment *string
	if text != nil {
		if trimmed := strings.TrimSpace(*text); trimmed != "" {
			comment = &trimmed
		}
	}

	review, err := c.reviews.CreateReview(ctx, &domain.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
	})
	if err != nil {
		if errors.Is(err, store.ErrReviewRejected) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidRating)
		}
		return nil, c.unavailable(op, err)
	}
	return review, nil
}

func (c *Client) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	const op = "Client.ListOrders"

	orders, err := c.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, c.unavailable(op, err)
	}
	return orders, nil
}

// GetOrder returns the order only when it belongs to userID.
func (c *Client) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	const op = "Client.GetOrder"

	order, err := c.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}
		return nil, c.unavailable(op, err)
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
	}
	return order, nil
}

// PlaceOrder records an order for the given cart lines with status Processing.
func (c *Client) PlaceOrder(ctx context.Context, userID string, lines []domain.CartLine, currency string) (*domain.Order, error) {
	const op = "Client.PlaceOrder"

	if len(lines) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyOrder)
	}

	total := decimal.Zero
	items := make([]domain.OrderItem, len(lines))
	for i, l := range lines {
		items[i] = domain.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice,
		}
		total = total.Add(l.Subtotal())
	}

	order, err := c.orders.CreateOrder(ctx, &domain.Order{
		UserID:      userID,
		TotalAmount: total,
		Currency:    currency,
		Status:      domain.DefaultOrderStatus,
		Items:       items,
	})
	if err != nil {
		return nil, c.unavailable(op, err)
	}
	c.logger.Info("order placed", zap.String("order_id", order.ID), zap.String("user_id", userID), zap.String("total", total.StringFixed(2)))
	return order, nil
}
