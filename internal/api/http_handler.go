package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront-service/internal/auth"
	"storefront-service/internal/catalog"
	"storefront-service/internal/domain"
	"storefront-service/internal/filter"
	"storefront-service/internal/remote"
	"storefront-service/internal/session"
)

// SessionHeader carries the visitor's session id in both directions.
const SessionHeader = "X-Session-ID"

const (
	msgLoginRequired = "login required"
	msgUnavailable   = "The store service is unavailable right now. Please try again."
)

// Remotes bundles the hosted data service capabilities.
type Remotes struct {
	Wishlist remote.Wishlist
	Reviews  remote.Reviews
	Orders   remote.Orders
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	catalog  *catalog.Store
	sessions *session.Manager
	remotes  Remotes
	auth     auth.Authenticator
	currency string
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(
	cat *catalog.Store,
	sessions *session.Manager,
	remotes Remotes,
	authn auth.Authenticator,
	currency string,
	logger *zap.Logger,
) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		catalog:  cat,
		sessions: sessions,
		remotes:  remotes,
		auth:     authn,
		currency: currency,
		validate: validator.New(),
		logger:   logger,
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListResponse wraps a list payload.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

func newList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items, Total: len(items)}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			zap.L().Error("failed to encode JSON response", zap.Error(err))
		}
	}
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the 400 response itself and reports whether the handler may go on.
func (h *HTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// respondRemoteError maps a failed remote call to a response. Anything not
// recognised is reported as 502.
func (h *HTTPHandler) respondRemoteError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, remote.ErrInvalidRating):
		respondWithError(w, http.StatusBadRequest, remote.ErrInvalidRating.Error())
	case errors.Is(err, remote.ErrEmptyOrder):
		respondWithError(w, http.StatusBadRequest, "Your cart is empty")
	case errors.Is(err, remote.ErrOrderNotFound):
		respondWithError(w, http.StatusNotFound, "Order not found")
	default:
		h.requestLogger(r).Error("remote call failed", zap.String("op", op), zap.Error(err))
		respondWithError(w, http.StatusBadGateway, msgUnavailable)
	}
}

func (h *HTTPHandler) requestLogger(r *http.Request) *zap.Logger {
	logger := h.logger
	if s := sessionFrom(r.Context()); s != nil {
		logger = logger.With(zap.String("session_id", s.ID))
	}
	return logger
}

// --- Session middleware ---

type sessionCtxKey struct{}

// SessionMiddleware opens the session named by the X-Session-ID header,
// creating one when the header is absent or unknown, and echoes its id back.
func (h *HTTPHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, created := h.sessions.Open(r.Context(), r.Header.Get(SessionHeader))
		if created {
			h.logger.Debug("new session", zap.String("session_id", s.ID))
		}
		w.Header().Set(SessionHeader, s.ID)
		ctx := context.WithValue(r.Context(), sessionCtxKey{}, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionCtxKey{}).(*session.Session)
	return s
}

// requireUser returns the signed-in user's id or writes 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	s := sessionFrom(r.Context())
	if s == nil {
		respondWithError(w, http.StatusUnauthorized, msgLoginRequired)
		return "", false
	}
	userID, ok := s.UserID()
	if !ok {
		respondWithError(w, http.StatusUnauthorized, msgLoginRequired)
		return "", false
	}
	return userID, true
}

// --- Catalog Handlers ---

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.listFiltered(w, r, h.defaultState())
}

func (h *HTTPHandler) ListFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, newList(h.catalog.Featured()))
}

func (h *HTTPHandler) ListNewProducts(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, newList(h.catalog.New()))
}

// FacetsResponse lists the browse page's selectable values.
type FacetsResponse struct {
	Categories []string          `json:"categories"`
	Colors     []string          `json:"colors"`
	PriceRange domain.PriceRange `json:"price_range"`
	Sorts      []string          `json:"sorts"`
}

func (h *HTTPHandler) GetFacets(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, FacetsResponse{
		Categories: h.catalog.Categories(),
		Colors:     h.catalog.Colors(),
		PriceRange: h.defaultState().PriceRange,
		Sorts: []string{
			string(domain.SortFeatured),
			string(domain.SortPriceAsc),
			string(domain.SortPriceDesc),
			string(domain.SortNewest),
		},
	})
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	product, ok := h.catalog.GetByID(chi.URLParam(r, "productId"))
	if !ok {
		respondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	respondWithJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, newList(h.catalog.Categories()))
}

// ListCategoryProducts is the browse page entered from a category link: the
// category is pre-selected and the usual query parameters still apply.
func (h *HTTPHandler) ListCategoryProducts(w http.ResponseWriter, r *http.Request) {
	requested := chi.URLParam(r, "category")
	var category string
	for _, c := range h.catalog.Categories() {
		if strings.EqualFold(c, requested) {
			category = c
			break
		}
	}
	if category == "" {
		respondWithError(w, http.StatusNotFound, "Category not found")
		return
	}

	base := h.defaultState()
	base.Categories = []string{category}
	h.listFiltered(w, r, base)
}

func (h *HTTPHandler) listFiltered(w http.ResponseWriter, r *http.Request, base domain.FilterState) {
	state, err := parseFilterQuery(r.URL.Query(), base)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, newList(filter.Apply(h.catalog.All(), state)))
}

func (h *HTTPHandler) defaultState() domain.FilterState {
	return browseDefaults(h.catalog)
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.SessionMiddleware)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			// Fixed paths go before {productId}.
			r.Get("/featured", h.ListFeaturedProducts)
			r.Get("/new", h.ListNewProducts)
			r.Get("/facets", h.GetFacets)

			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", h.GetProductByID)
				r.Get("/reviews", h.ListReviews)
				r.Post("/reviews", h.SubmitReview)
			})
		})

		r.Get("/categories", h.ListCategories)
		r.Get("/categories/{category}/products", h.ListCategoryProducts)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddCartItem)
			r.Route("/items/{productId}", func(r chi.Router) {
				r.Put("/", h.SetCartItemQuantity)
				r.Delete("/", h.RemoveCartItem)
				r.Post("/decrement", h.DecrementCartItem)
			})
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", h.ListWishlist)
			r.Get("/{productId}", h.GetWishlistStatus)
			r.Post("/{productId}/toggle", h.ToggleWishlist)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.PlaceOrder)
			r.Get("/{orderId}", h.GetOrder)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.SignUp)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
		})
	})
}
