// Package auth signs storefront users up and in against the user store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

var (
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
)

// Authenticator is what the HTTP layer needs from this package.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string, fullName *string) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, error)
}

type Service struct {
	users  store.UserStorer
	cost   int
	logger *zap.Logger
}

var _ Authenticator = (*Service)(nil)

func NewService(users store.UserStorer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, cost: bcrypt.DefaultCost, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) SignUp(ctx context.Context, email, password string, fullName *string) (*domain.User, error) {
	const op = "Service.SignUp"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("%s: hash password: %w", op, err)
	}

	if fullName != nil {
		if trimmed := strings.TrimSpace(*fullName); trimmed != "" {
			fullName = &trimmed
		} else {
			fullName = nil
		}
	}

	user, err := s.users.CreateUser(ctx, &domain.User{
		Email:        normalizeEmail(email),
		FullName:     fullName,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info("user signed up", zap.String("user_id", user.ID))
	return user, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	const op = "Service.SignIn"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
