package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront-service/internal/auth"
	"storefront-service/internal/domain"
)

// --- Auth Handlers ---

// SignUpInput defines the expected input for creating an account.
type SignUpInput struct {
	Email    string  `json:"email" validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

// LoginInput defines the expected input for signing in.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// MeResponse reports the session's user; User is null for a guest.
type MeResponse struct {
	User *domain.User `json:"user"`
}

func (h *HTTPHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var input SignUpInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	user, err := h.auth.SignUp(r.Context(), input.Email, input.Password, input.FullName)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			respondWithError(w, http.StatusConflict, auth.ErrEmailTaken.Error())
			return
		}
		h.respondRemoteError(w, r, "SignUp", err)
		return
	}

	h.signIn(w, r, *user)
	respondWithJSON(w, http.StatusCreated, MeResponse{User: user})
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	user, err := h.auth.SignIn(r.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
			return
		}
		h.respondRemoteError(w, r, "SignIn", err)
		return
	}

	h.signIn(w, r, *user)
	respondWithJSON(w, http.StatusOK, MeResponse{User: user})
}

// signIn moves the session to a fresh id for user and echoes the new id.
func (h *HTTPHandler) signIn(w http.ResponseWriter, r *http.Request, user domain.User) {
	s := h.sessions.SignIn(r.Context(), sessionFrom(r.Context()), user)
	w.Header().Set(SessionHeader, s.ID)
}

// Logout signs the session out; the cart stays with the session.
func (h *HTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).SignOut()
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, MeResponse{User: sessionFrom(r.Context()).User()})
}

// --- Wishlist Handlers ---

// WishlistStatus is a product's wishlist membership.
type WishlistStatus struct {
	ProductID  string `json:"product_id"`
	Wishlisted bool   `json:"wishlisted"`
}

// ListWishlist resolves the saved product ids against the catalog. Ids the
// catalog no longer carries are skipped.
func (h *HTTPHandler) ListWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	ids, err := h.remotes.Wishlist.List(r.Context(), userID)
	if err != nil {
		h.respondRemoteError(w, r, "ListWishlist", err)
		return
	}

	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, found := h.catalog.GetByID(id); found {
			products = append(products, p)
		}
	}
	respondWithJSON(w, http.StatusOK, newList(products))
}

func (h *HTTPHandler) GetWishlistStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productId")

	wishlisted, err := h.remotes.Wishlist.IsWishlisted(r.Context(), userID, productID)
	if err != nil {
		h.respondRemoteError(w, r, "IsWishlisted", err)
		return
	}
	respondWithJSON(w, http.StatusOK, WishlistStatus{ProductID: productID, Wishlisted: wishlisted})
}

func (h *HTTPHandler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productId")
	if _, found := h.catalog.GetByID(productID); !found {
		respondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	wishlisted, err := h.remotes.Wishlist.Toggle(r.Context(), userID, productID)
	if err != nil {
		h.respondRemoteError(w, r, "ToggleWishlist", err)
		return
	}
	respondWithJSON(w, http.StatusOK, WishlistStatus{ProductID: productID, Wishlisted: wishlisted})
}

// --- Review Handlers ---

// ReviewInput defines the expected input for submitting a review.
type ReviewInput struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

func (h *HTTPHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if _, found := h.catalog.GetByID(productID); !found {
		respondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	reviews, err := h.remotes.Reviews.ListReviews(r.Context(), productID)
	if err != nil {
		h.respondRemoteError(w, r, "ListReviews", err)
		return
	}
	respondWithJSON(w, http.StatusOK, newList(reviews))
}

func (h *HTTPHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productId")
	if _, found := h.catalog.GetByID(productID); !found {
		respondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	var input ReviewInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	review, err := h.remotes.Reviews.SubmitReview(r.Context(), userID, productID, input.Rating, input.Comment)
	if err != nil {
		h.respondRemoteError(w, r, "SubmitReview", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, review)
}
