package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-service/internal/cart"
	"storefront-service/internal/domain"
)

// CartResponse is the cart as shown on the cart page.
type CartResponse struct {
	Items    []domain.CartLine `json:"items"`
	Count    int               `json:"count"`
	Total    decimal.Decimal   `json:"total"`
	Currency string            `json:"currency"`
}

func (h *HTTPHandler) cartResponse(c *cart.Cart) CartResponse {
	return CartResponse{
		Items:    c.Lines(),
		Count:    c.Count(),
		Total:    c.Total(),
		Currency: h.currency,
	}
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.cartResponse(sessionFrom(r.Context()).Cart))
}

// CartItemInput defines the expected input for adding a product to the cart.
type CartItemInput struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  *int   `json:"quantity" validate:"omitempty,gte=1,lte=99"`
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var input CartItemInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	product, ok := h.catalog.GetByID(input.ProductID)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	quantity := 1
	if input.Quantity != nil {
		quantity = *input.Quantity
	}

	c := sessionFrom(r.Context()).Cart
	c.AddItem(r.Context(), product.ID, product.Name, product.EffectivePrice(), quantity)
	respondWithJSON(w, http.StatusOK, h.cartResponse(c))
}

// CartQuantityInput defines the expected input for setting a line's quantity.
// Zero removes the line.
type CartQuantityInput struct {
	Quantity *int `json:"quantity" validate:"required,gte=0,lte=99"`
}

func (h *HTTPHandler) SetCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	var input CartQuantityInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	c := sessionFrom(r.Context()).Cart
	if !hasLine(c, productID) {
		respondWithError(w, http.StatusNotFound, "Item not in cart")
		return
	}
	c.SetQuantity(r.Context(), productID, *input.Quantity)
	respondWithJSON(w, http.StatusOK, h.cartResponse(c))
}

func (h *HTTPHandler) DecrementCartItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	c := sessionFrom(r.Context()).Cart
	if !hasLine(c, productID) {
		respondWithError(w, http.StatusNotFound, "Item not in cart")
		return
	}
	c.Decrement(r.Context(), productID)
	respondWithJSON(w, http.StatusOK, h.cartResponse(c))
}

// RemoveCartItem is idempotent: removing an absent product still succeeds.
func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	c := sessionFrom(r.Context()).Cart
	c.RemoveItem(r.Context(), chi.URLParam(r, "productId"))
	respondWithJSON(w, http.StatusOK, h.cartResponse(c))
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c := sessionFrom(r.Context()).Cart
	c.Clear(r.Context())
	respondWithJSON(w, http.StatusOK, h.cartResponse(c))
}

func hasLine(c *cart.Cart, productID string) bool {
	for _, l := range c.Lines() {
		if l.ProductID == productID {
			return true
		}
	}
	return false
}

// --- Order Handlers ---

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	orders, err := h.remotes.Orders.ListOrders(r.Context(), userID)
	if err != nil {
		h.respondRemoteError(w, r, "ListOrders", err)
		return
	}
	respondWithJSON(w, http.StatusOK, newList(orders))
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	order, err := h.remotes.Orders.GetOrder(r.Context(), userID, chi.URLParam(r, "orderId"))
	if err != nil {
		h.respondRemoteError(w, r, "GetOrder", err)
		return
	}
	respondWithJSON(w, http.StatusOK, order)
}

// PlaceOrder checks out the session cart. The ordered lines are taken out of
// the cart only once the order has been recorded; items added meanwhile stay.
func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	c := sessionFrom(r.Context()).Cart
	lines := c.Lines()
	if len(lines) == 0 {
		respondWithError(w, http.StatusBadRequest, "Your cart is empty")
		return
	}

	order, err := h.remotes.Orders.PlaceOrder(r.Context(), userID, lines, h.currency)
	if err != nil {
		h.respondRemoteError(w, r, "PlaceOrder", err)
		return
	}
	c.RemoveLines(r.Context(), lines)

	h.requestLogger(r).Info("checkout completed", zap.String("order_id", order.ID), zap.Int("lines", len(lines)))
	respondWithJSON(w, http.StatusCreated, order)
}
