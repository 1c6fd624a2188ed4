package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"storefront-service/internal/cart"
	"storefront-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrValueNotFound         = errors.New("store: value not found")
	ErrUserNotFound          = errors.New("store: user not found")
	ErrEmailExists           = errors.New("store: email already registered")
	ErrWishlistEntryNotFound = errors.New("store: wishlist entry not found")
	ErrWishlistEntryExists   = errors.New("store: product already in wishlist")
	ErrReviewRejected        = errors.New("store: review violates constraints")
	ErrOrderNotFound         = errors.New("store: order not found")
)

// Postgres error codes the store maps to domain errors.
const (
	pqUniqueViolation     = "23505"
	pqCheckViolation      = "23514"
	pqInvalidTextRepr     = "22P02"
	pqForeignKeyViolation = "23503"
)

// PostgresStore implements the storer interfaces using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger}
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// --- KVStorer Implementation ---

func (s *PostgresStore) LoadValue(ctx context.Context, namespace, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM storefront.local_storage
		WHERE namespace = $1 AND key = $2;
	`
	var value []byte
	if err := s.db.QueryRowContext(ctx, query, namespace, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrValueNotFound
		}
		return nil, fmt.Errorf("store: LoadValue failed to scan row: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) SaveValue(ctx context.Context, namespace, key string, value []byte) error {
	query := `
		INSERT INTO storefront.local_storage (namespace, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP;
	`
	if _, err := s.db.ExecContext(ctx, query, namespace, key, string(value)); err != nil {
		return fmt.Errorf("store: SaveValue failed to execute upsert: %w", err)
	}
	return nil
}

// Namespace returns a cart.Storage bound to one namespace of the store.
func (s *PostgresStore) Namespace(namespace string) cart.Storage {
	return namespacedStorage{kv: s, namespace: namespace}
}

type namespacedStorage struct {
	kv        KVStorer
	namespace string
}

func (n namespacedStorage) Load(ctx context.Context, key string) ([]byte, error) {
	v, err := n.kv.LoadValue(ctx, n.namespace, key)
	if errors.Is(err, ErrValueNotFound) {
		return nil, cart.ErrNotFound
	}
	return v, err
}

func (n namespacedStorage) Save(ctx context.Context, key string, data []byte) error {
	return n.kv.SaveValue(ctx, n.namespace, key, data)
}

// --- UserStorer Implementation ---

func (s *PostgresStore) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO storefront.users (email, full_name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, full_name, password_hash, created_at;
	`
	var created domain.User
	err := s.db.QueryRowContext(ctx, query, user.Email, user.FullName, user.PasswordHash).Scan(
		&created.ID,
		&created.Email,
		&created.FullName,
		&created.PasswordHash,
		&created.CreatedAt,
	)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("store: CreateUser failed to scan row: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, full_name, password_hash, created_at
		FROM storefront.users
		WHERE email = $1;
	`
	return s.getUser(ctx, "GetUserByEmail", query, strings.ToLower(email))
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, full_name, password_hash, created_at
		FROM storefront.users
		WHERE id = $1;
	`
	return s.getUser(ctx, "GetUserByID", query, id)
}

func (s *PostgresStore) getUser(ctx context.Context, op, query string, arg any) (*domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pqCode(err) == pqInvalidTextRepr {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: %s failed to scan row: %w", op, err)
	}
	return &user, nil
}

// --- WishlistStorer Implementation ---

func (s *PostgresStore) WishlistExists(ctx context.Context, userID, productID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM storefront.wishlist WHERE user_id = $1 AND product_id = $2);`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, userID, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("store: WishlistExists failed to scan row: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) AddWishlistEntry(ctx context.Context, userID, productID string) (*domain.WishlistEntry, error) {
	query := `
		INSERT INTO storefront.wishlist (user_id, product_id)
		VALUES ($1, $2)
		RETURNING user_id, product_id, created_at;
	`
	var entry domain.WishlistEntry
	err := s.db.QueryRowContext(ctx, query, userID, productID).Scan(&entry.UserID, &entry.ProductID, &entry.CreatedAt)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return nil, ErrWishlistEntryExists
		}
		return nil, fmt.Errorf("store: AddWishlistEntry failed to scan row: %w", err)
	}
	return &entry, nil
}

func (s *PostgresStore) RemoveWishlistEntry(ctx context.Context, userID, productID string) error {
	query := `DELETE FROM storefront.wishlist WHERE user_id = $1 AND product_id = $2;`
	result, err := s.db.ExecContext(ctx, query, userID, productID)
	if err != nil {
		return fmt.Errorf("store: RemoveWishlistEntry failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: RemoveWishlistEntry failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrWishlistEntryNotFound
	}
	return nil
}

func (s *PostgresStore) ListWishlist(ctx context.Context, userID string) ([]domain.WishlistEntry, error) {
	query := `
		SELECT user_id, product_id, created_at
		FROM storefront.wishlist
		WHERE user_id = $1
		ORDER BY created_at DESC;
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("store: ListWishlist failed to query wishlist: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.WishlistEntry, 0)
	for rows.Next() {
		var e domain.WishlistEntry
		if err := rows.Scan(&e.UserID, &e.ProductID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: ListWishlist failed to scan wishlist row: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListWishlist iteration error: %w", err)
	}
	return entries, nil
}

// --- ReviewStorer Implementation ---

func (s *PostgresStore) CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	query := `
		INSERT INTO storefront.reviews (product_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, product_id, user_id, rating, comment, created_at;
	`
	var created domain.Review
	err := s.db.QueryRowContext(ctx, query, review.ProductID, review.UserID, review.Rating, review.Comment).Scan(
		&created.ID,
		&created.ProductID,
		&created.UserID,
		&created.Rating,
		&created.Comment,
		&created.CreatedAt,
	)
	if err != nil {
		switch pqCode(err) {
		case pqCheckViolation, pqForeignKeyViolation:
			return nil, ErrReviewRejected
		}
		return nil, fmt.Errorf("store: CreateReview failed to scan row: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) ListReviewsByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	query := `
		SELECT id, product_id, user_id, rating, comment, created_at
		FROM storefront.reviews
		WHERE product_id = $1
		ORDER BY created_at DESC;
	`
	rows, err := s.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("store: ListReviewsByProduct failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var r domain.Review
		if err := rows.Scan(&r.ID, &r.ProductID, &r.UserID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: ListReviewsByProduct failed to scan review row: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListReviewsByProduct iteration error: %w", err)
	}
	return reviews, nil
}

// Ping checks the connection; used by the health endpoint.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Info("closing database connection pool")
	if err := s.db.Close(); err != nil {
		s.logger.Error("failed to close database connection pool", zap.Error(err))
		return err
	}
	s.logger.Info("database connection pool closed")
	return nil
}
