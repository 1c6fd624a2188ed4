package store

import (
	"context"

	"storefront-service/internal/domain"
)

// KVStorer is the durable key-value storage behind session carts.
// Values are scoped by namespace (one namespace per session).
type KVStorer interface {
	LoadValue(ctx context.Context, namespace, key string) ([]byte, error)
	SaveValue(ctx context.Context, namespace, key string, value []byte) error
}

// UserStorer defines the database operations for storefront accounts.
type UserStorer interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// WishlistStorer defines the database operations for wishlists.
type WishlistStorer interface {
	WishlistExists(ctx context.Context, userID, productID string) (bool, error)
	AddWishlistEntry(ctx context.Context, userID, productID string) (*domain.WishlistEntry, error)
	RemoveWishlistEntry(ctx context.Context, userID, productID string) error
	ListWishlist(ctx context.Context, userID string) ([]domain.WishlistEntry, error) // Newest first
}

// ReviewStorer defines the database operations for product reviews.
type ReviewStorer interface {
	CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error)
	ListReviewsByProduct(ctx context.Context, productID string) ([]domain.Review, error) // Newest first
}

// OrderStorer defines the database operations for orders.
type OrderStorer interface {
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) // Newest first
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
}
