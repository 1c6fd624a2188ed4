package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/auth"
	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/domain"
	"storefront-service/internal/remote"
	"storefront-service/internal/session"
)

// --- Mocks ---

// MockRemote is a mock implementation of remote.Wishlist, remote.Reviews and remote.Orders.
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) IsWishlisted(ctx context.Context, userID, productID string) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRemote) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRemote) List(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	var ids []string
	if arg0 := args.Get(0); arg0 != nil {
		ids = arg0.([]string)
	}
	return ids, args.Error(1)
}

func (m *MockRemote) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	args := m.Called(ctx, productID)
	var reviews []domain.Review
	if arg0 := args.Get(0); arg0 != nil {
		reviews = arg0.([]domain.Review)
	}
	return reviews, args.Error(1)
}

func (m *MockRemote) SubmitReview(ctx context.Context, userID, productID string, rating int, text *string) (*domain.Review, error) {
	args := m.Called(ctx, userID, productID, rating, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockRemote) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	var orders []domain.Order
	if arg0 := args.Get(0); arg0 != nil {
		orders = arg0.([]domain.Order)
	}
	return orders, args.Error(1)
}

func (m *MockRemote) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockRemote) PlaceOrder(ctx context.Context, userID string, lines []domain.CartLine, currency string) (*domain.Order, error) {
	args := m.Called(ctx, userID, lines, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// MockAuthenticator is a mock implementation of auth.Authenticator.
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) SignUp(ctx context.Context, email, password string, fullName *string) (*domain.User, error) {
	args := m.Called(ctx, email, password, fullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthenticator) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Test harness ---

type testServer struct {
	*httptest.Server
	remote *MockRemote
	auth   *MockAuthenticator
}

// Helper for setting up tests with a chi router and handler
func setupTestChiServer(t *testing.T) *testServer {
	t.Helper()
	rm := new(MockRemote)
	am := new(MockAuthenticator)
	sessions := session.NewManager(func(string) cart.Storage { return cart.NewMemoryStorage() }, session.Limits{}, nil)

	handler := NewHTTPHandler(catalog.Default(), sessions, Remotes{Wishlist: rm, Reviews: rm, Orders: rm}, am, "INR", nil)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, remote: rm, auth: am}
}

// do sends a request on the given session and returns the response plus the
// session id the server echoed.
func (s *testServer) do(t *testing.T, method, path, sessionID string, body any) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res, res.Header.Get(SessionHeader)
}

// login signs a fresh session in as userID and returns the session id.
func (s *testServer) login(t *testing.T, userID string) string {
	t.Helper()
	email := userID + "@example.com"
	s.auth.On("SignIn", mock.Anything, email, "secret-pass").
		Return(&domain.User{ID: userID, Email: email}, nil).Once()

	res, sid := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginInput{Email: email, Password: "secret-pass"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, sid)
	return sid
}

func decodeBody[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func productIDs(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

// Helper function to get a pointer (useful for optional fields in domain structs)
func PtrTo[T any](v T) *T {
	return &v
}

// --- Catalog ---

func TestHTTPHandler_ListProducts(t *testing.T) {
	srv := setupTestChiServer(t)

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"Unfiltered", "", []string{"1", "2", "3", "4", "5", "6", "7", "8"}},
		{"Category", "?category=Running", []string{"1", "3"}},
		{"CategoryCommaList", "?category=hiking,casual", []string{"5", "7"}},
		{"Search", "?q=canvas", []string{"7"}},
		{"SearchMatchesCategory", "?q=water", []string{"8"}},
		{"Color", "?color=Purple&color=teal", []string{"6", "8"}},
		{"PriceRangeUsesSalePrice", "?min_price=60&max_price=130", []string{"2", "7", "8"}},
		{"PriceAsc", "?category=Running&category=Lifestyle&sort=price-asc", []string{"2", "4", "1", "3"}},
		{"PriceDescAlias", "?category=Running&sort=price-high-low", []string{"3", "1"}},
		{"Newest", "?category=Lifestyle&sort=newest", []string{"4", "2"}},
		{"InvertedRangeIsEmpty", "?min_price=100&max_price=50", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := srv.do(t, http.MethodGet, "/api/v1/products"+tt.query, "", nil)
			require.Equal(t, http.StatusOK, res.StatusCode)

			body := decodeBody[ListResponse[domain.Product]](t, res)
			assert.Equal(t, tt.wantIDs, productIDs(body.Data))
			assert.Equal(t, len(tt.wantIDs), body.Total)
		})
	}
}

func TestHTTPHandler_ListProducts_BadQuery(t *testing.T) {
	srv := setupTestChiServer(t)

	for _, query := range []string{"?min_price=abc", "?max_price=-1", "?sort=cheapest"} {
		t.Run(query, func(t *testing.T) {
			res, _ := srv.do(t, http.MethodGet, "/api/v1/products"+query, "", nil)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			body := decodeBody[ErrorResponse](t, res)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHTTPHandler_FeaturedNewAndFacets(t *testing.T) {
	srv := setupTestChiServer(t)

	res, _ := srv.do(t, http.MethodGet, "/api/v1/products/featured", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, productIDs(decodeBody[ListResponse[domain.Product]](t, res).Data))

	res, _ = srv.do(t, http.MethodGet, "/api/v1/products/new", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, []string{"1", "4"}, productIDs(decodeBody[ListResponse[domain.Product]](t, res).Data))

	res, _ = srv.do(t, http.MethodGet, "/api/v1/products/facets", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	facets := decodeBody[FacetsResponse](t, res)
	assert.Equal(t, []string{"Running", "Lifestyle", "Hiking", "Basketball", "Casual", "Water Sports"}, facets.Categories)
	assert.Contains(t, facets.Colors, "Teal")
	assert.True(t, facets.PriceRange.Max.Equal(decimal.NewFromInt(300)))
}

func TestHTTPHandler_GetProductByID(t *testing.T) {
	srv := setupTestChiServer(t)

	res, _ := srv.do(t, http.MethodGet, "/api/v1/products/2", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	p := decodeBody[domain.Product](t, res)
	assert.Equal(t, "Street Motion 2", p.Name)
	require.NotNil(t, p.SalePrice)
	assert.Equal(t, "129.99", p.SalePrice.StringFixed(2))

	res, _ = srv.do(t, http.MethodGet, "/api/v1/products/99", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestHTTPHandler_Categories(t *testing.T) {
	srv := setupTestChiServer(t)

	res, _ := srv.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, decodeBody[ListResponse[string]](t, res).Data, 6)

	res, _ = srv.do(t, http.MethodGet, "/api/v1/categories/running/products?sort=price-desc", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, []string{"3", "1"}, productIDs(decodeBody[ListResponse[domain.Product]](t, res).Data))

	res, _ = srv.do(t, http.MethodGet, "/api/v1/categories/tennis/products", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

// --- Session & cart ---

func TestHTTPHandler_SessionHeaderIsAssignedAndEchoed(t *testing.T) {
	srv := setupTestChiServer(t)

	_, sid := srv.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	require.NotEmpty(t, sid)

	_, echoed := srv.do(t, http.MethodGet, "/api/v1/cart", sid, nil)
	assert.Equal(t, sid, echoed)

	_, replaced := srv.do(t, http.MethodGet, "/api/v1/cart", "not-a-uuid", nil)
	assert.NotEqual(t, "not-a-uuid", replaced)
	assert.NotEmpty(t, replaced)
}

func TestHTTPHandler_CartFlow(t *testing.T) {
	srv := setupTestChiServer(t)

	res, sid := srv.do(t, http.MethodPost, "/api/v1/cart/items", "", CartItemInput{ProductID: "1"})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = srv.do(t, http.MethodPost, "/api/v1/cart/items", sid, CartItemInput{ProductID: "1", Quantity: PtrTo(2)})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = srv.do(t, http.MethodPost, "/api/v1/cart/items", sid, CartItemInput{ProductID: "2"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	body := decodeBody[CartResponse](t, res)

	require.Len(t, body.Items, 2, "repeated adds merge into one line")
	assert.Equal(t, 3, body.Items[0].Quantity)
	assert.Equal(t, "129.99", body.Items[1].UnitPrice.StringFixed(2), "sale price is the unit price")
	assert.Equal(t, 4, body.Count)
	assert.Equal(t, "699.96", body.Total.StringFixed(2))
	assert.Equal(t, "INR", body.Currency)

	res, _ = srv.do(t, http.MethodPost, "/api/v1/cart/items/1/decrement", sid, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 2, decodeBody[CartResponse](t, res).Items[0].Quantity)

	res, _ = srv.do(t, http.MethodPut, "/api/v1/cart/items/2", sid, CartQuantityInput{Quantity: PtrTo(0)})
	require.Equal(t, http.StatusOK, res.StatusCode)
	body = decodeBody[CartResponse](t, res)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "379.98", body.Total.StringFixed(2))

	res, _ = srv.do(t, http.MethodDelete, "/api/v1/cart/items/42", sid, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, "removing an unknown id is a no-op")
	assert.Len(t, decodeBody[CartResponse](t, res).Items, 1)

	res, _ = srv.do(t, http.MethodDelete, "/api/v1/cart/items/1", sid, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	body = decodeBody[CartResponse](t, res)
	assert.Empty(t, body.Items)
	assert.True(t, body.Total.IsZero())

	res, _ = srv.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Empty(t, decodeBody[CartResponse](t, res).Items, "another session has its own cart")
}

func TestHTTPHandler_CartErrors(t *testing.T) {
	srv := setupTestChiServer(t)

	res, sid := srv.do(t, http.MethodPost, "/api/v1/cart/items", "", CartItemInput{ProductID: "99"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = srv.do(t, http.MethodPost, "/api/v1/cart/items", sid, CartItemInput{ProductID: "1", Quantity: PtrTo(0)})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = srv.do(t, http.MethodPost, "/api/v1/cart/items", sid, map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = srv.do(t, http.MethodPut, "/api/v1/cart/items/1", sid, CartQuantityInput{Quantity: PtrTo(2)})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = srv.do(t, http.MethodPost, "/api/v1/cart/items/1/decrement", sid, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

// --- Auth ---

func TestHTTPHandler_SignUpLoginLogout(t *testing.T) {
	srv := setupTestChiServer(t)

	srv.auth.On("SignUp", mock.Anything, "new@example.com", "secret-pass", PtrTo("New Shopper")).
		Return(&domain.User{ID: "u-new", Email: "new@example.com", FullName: PtrTo("New Shopper"), CreatedAt: time.Now()}, nil).Once()

	res, sid := srv.do(t, http.MethodPost, "/api/v1/auth/signup", "", SignUpInput{
		Email: "new@example.com", Password: "secret-pass", FullName: PtrTo("New Shopper"),
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	me := decodeBody[MeResponse](t, res)
	require.NotNil(t, me.User)
	assert.Equal(t, "u-new", me.User.ID)

	res, _ = srv.do(t, http.MethodGet, "/api/v1/auth/me", sid, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	me = decodeBody[MeResponse](t, res)
	require.NotNil(t, me.User)
	assert.Equal(t, "new@example.com", me.User.Email)

	res, _ = srv.do(t, http.MethodPost, "/api/v1/auth/logout", sid, nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res, _ = srv.do(t, http.MethodGet, "/api/v1/auth/me", sid, nil)
	assert.Nil(t, decodeBody[MeResponse](t, res).User)
	srv.auth.AssertExpectations(t)
}

func TestHTTPHandler_LoginIssuesNewSessionAndKeepsCart(t *testing.T) {
	srv := setupTestChiServer(t)

	res, guestSID := srv.do(t, http.MethodPost, "/api/v1/cart/items", "", CartItemInput{ProductID: "7", Quantity: PtrTo(2)})
	require.Equal(t, http.StatusOK, res.StatusCode)

	srv.auth.On("SignIn", mock.Anything, "u1@example.com", "secret-pass").
		Return(&domain.User{ID: "u1", Email: "u1@example.com"}, nil).Once()
	res, userSID := srv.do(t, http.MethodPost, "/api/v1/auth/login", guestSID, LoginInput{Email: "u1@example.com", Password: "secret-pass"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, userSID)
	assert.NotEqual(t, guestSID, userSID)

	res, _ = srv.do(t, http.MethodGet, "/api/v1/cart", userSID, nil)
	cartBody := decodeBody[CartResponse](t, res)
	require.Len(t, cartBody.Items, 1, "the cart follows the visitor")
	assert.Equal(t, 2, cartBody.Count)

	res, _ = srv.do(t, http.MethodGet, "/api/v1/auth/me", userSID, nil)
	me := decodeBody[MeResponse](t, res)
	require.NotNil(t, me.User)
	assert.Equal(t, "u1", me.User.ID)

	res, _ = srv.do(t, http.MethodGet, "/api/v1/auth/me", guestSID, nil)
	assert.Nil(t, decodeBody[MeResponse](t, res).User, "the pre-login id is not signed in")
	srv.auth.AssertExpectations(t)
}

func TestHTTPHandler_AuthErrors(t *testing.T) {
	srv := setupTestChiServer(t)

	srv.auth.On("SignUp", mock.Anything, "taken@example.com", "secret-pass", (*string)(nil)).Return(nil, auth.ErrEmailTaken).Once()
	srv.auth.On("SignIn", mock.Anything, "who@example.com", "wrong").Return(nil, auth.ErrInvalidCredentials).Once()

	res, _ := srv.do(t, http.MethodPost, "/api/v1/auth/signup", "", SignUpInput{Email: "taken@example.com", Password: "secret-pass"})
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res, _ = srv.do(t, http.MethodPost, "/api/v1/auth/signup", "", SignUpInput{Email: "not-an-email", Password: "secret-pass"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = srv.do(t, http.MethodPost, "/api/v1/auth/signup", "", SignUpInput{Email: "short@example.com", Password: "123"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, sid := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginInput{Email: "who@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = srv.do(t, http.MethodGet, "/api/v1/auth/me", sid, nil)
	assert.Nil(t, decodeBody[MeResponse](t, res).User)
	srv.auth.AssertExpectations(t)
}

// --- Wishlist ---

func TestHTTPHandler_GuestNeedsLogin(t *testing.T) {
	srv := setupTestChiServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/wishlist"},
		{http.MethodGet, "/api/v1/wishlist/1"},
		{http.MethodPost, "/api/v1/wishlist/1/toggle"},
		{http.MethodPost, "/api/v1/products/1/reviews"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/orders/o1"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			res, _ := srv.do(t, tc.method, tc.path, "", nil)
			require.Equal(t, http.StatusUnauthorized, res.StatusCode)
			assert.Equal(t, "login required", decodeBody[ErrorResponse](t, res).Error)
		})
	}
	srv.remote.AssertNotCalled(t, "Toggle", mock.Anything, mock.Anything, mock.Anything)
}

func TestHTTPHandler_Wishlist(t *testing.T) {
	srv := setupTestChiServer(t)
	sid := srv.login(t, "u1")

	srv.remote.On("Toggle", mock.Anything, "u1", "3").Return(true, nil).Once()
	srv.remote.On("IsWishlisted", mock.Anything, "u1", "3").Return(true, nil).Once()
	srv.remote.On("List", mock.Anything, "u1").Return([]string{"3", "gone", "1"}, nil).Once()

	res, _ := srv.do(t, http.MethodPost, "/api/v1/wishlist/3/toggle", sid, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, WishlistStatus{ProductID: "3", Wishlisted: true}, decodeBody[WishlistStatus](t, res))

	res, _ = srv.do(t, http.MethodGet, "/api/v1/wishlist/3", sid, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, decodeBody[WishlistStatus](t, res).Wishlisted)

	res, _ = srv.do(t, http.MethodGet, "/api/v1/wishlist", sid, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, []string{"3", "1"}, productIDs(decodeBody[ListResponse[domain.Product]](t, res).Data))

	res, _ = srv.do(t, http.MethodPost, "/api/v1/wishlist/99/toggle", sid, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	srv.remote.AssertExpectations(t)
}

func TestHTTPHandler_Wishlist_RemoteFailure(t *testing.T) {
	srv := setupTestChiServer(t)
	sid := srv.login(t, "u1")

	srv.remote.On("Toggle", mock.Anything, "u1", "3").
		Return(false, fmt.Errorf("Client.Toggle: %w", remote.ErrUnavailable)).Once()

	res, _ := srv.do(t, http.MethodPost, "/api/v1/wishlist/3/toggle", sid, nil)
	require.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.Equal(t, msgUnavailable, decodeBody[ErrorResponse](t, res).Error)
	srv.remote.AssertNumberOfCalls(t, "Toggle", 1)
}

// --- Reviews ---

func TestHTTPHandler_Reviews(t *testing.T) {
	srv := setupTestChiServer(t)
	sid := srv.login(t, "u1")

	srv.remote.On("ListReviews", mock.Anything, "1").Return([]domain.Review{
		{ID: "r2", ProductID: "1", Rating: 4},
		{ID: "r1", ProductID: "1", Rating: 5, Comment: PtrTo("Love them")},
	}, nil).Once()
	srv.remote.On("SubmitReview", mock.Anything, "u1", "1", 5, PtrTo("Great")).
		Return(&domain.Review{ID: "r3", ProductID: "1", UserID: "u1", Rating: 5, Comment: PtrTo("Great")}, nil).Once()

	res, _ := srv.do(t, http.MethodGet, "/api/v1/products/1/reviews", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	reviews := decodeBody[ListResponse[domain.Review]](t, res)
	require.Len(t, reviews.Data, 2)
	assert.Equal(t, "r2", reviews.Data[0].ID)

	res, _ = srv.do(t, http.MethodPost, "/api/v1/products/1/reviews", sid, ReviewInput{Rating: 5, Comment: PtrTo("Great")})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "r3", decodeBody[domain.Review](t, res).ID)

	for _, rating := range []int{0, 6} {
		res, _ = srv.do(t, http.MethodPost, "/api/v1/products/1/reviews", sid, ReviewInput{Rating: rating})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	}

	res, _ = srv.do(t, http.MethodGet, "/api/v1/products/99/reviews", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	srv.remote.AssertExpectations(t)
}

func TestHTTPHandler_Reviews_RemoteFailure(t *testing.T) {
	srv := setupTestChiServer(t)

	srv.remote.On("ListReviews", mock.Anything, "1").Return(nil, errors.New("dial tcp: refused")).Once()

	res, _ := srv.do(t, http.MethodGet, "/api/v1/products/1/reviews", "", nil)
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
}

// --- Orders ---

func TestHTTPHandler_PlaceOrder(t *testing.T) {
	srv := setupTestChiServer(t)
	sid := srv.login(t, "u1")

	res, _ := srv.do(t, http.MethodPost, "/api/v1/orders", sid, nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode, "empty cart cannot be checked out")

	res, _ = srv.do(t, http.MethodPost, "/api/v1/cart/items", sid, CartItemInput{ProductID: "7", Quantity: PtrTo(2)})
	require.Equal(t, http.StatusOK, res.StatusCode)

	srv.remote.On("PlaceOrder", mock.Anything, "u1", mock.MatchedBy(func(lines []domain.CartLine) bool {
		return len(lines) == 1 && lines[0].ProductID == "7" && lines[0].Quantity == 2
	}), "INR").Return(nil, fmt.Errorf("Client.PlaceOrder: %w", remote.ErrUnavailable)).Once()

	res, _ = srv.do(t, http.MethodPost, "/api/v1/orders", sid, nil)
	require.Equal(t, http.StatusBadGateway, res.StatusCode)

	res, _ = srv.do(t, http.MethodGet, "/api/v1/cart", sid, nil)
	require.Len(t, decodeBody[CartResponse](t, res).Items, 1, "a failed checkout keeps the cart")

	srv.remote.On("PlaceOrder", mock.Anything, "u1", mock.Anything, "INR").
		Return(&domain.Order{ID: "o1", UserID: "u1", TotalAmount: decimal.RequireFromString("139.98"), Currency: "INR", Status: domain.DefaultOrderStatus}, nil).Once()

	res, _ = srv.do(t, http.MethodPost, "/api/v1/orders", sid, nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	order := decodeBody[domain.Order](t, res)
	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, "Processing", order.Status)

	res, _ = srv.do(t, http.MethodGet, "/api/v1/cart", sid, nil)
	assert.Empty(t, decodeBody[CartResponse](t, res).Items, "checkout clears the cart")
	srv.remote.AssertExpectations(t)
}

func TestHTTPHandler_PlaceOrderKeepsItemsAddedDuringCheckout(t *testing.T) {
	srv := setupTestChiServer(t)
	sid := srv.login(t, "u1")

	res, _ := srv.do(t, http.MethodPost, "/api/v1/cart/items", sid, CartItemInput{ProductID: "7", Quantity: PtrTo(2)})
	require.Equal(t, http.StatusOK, res.StatusCode)

	// A second tab adds to the same cart while the order is being recorded.
	addStatus := 0
	srv.remote.On("PlaceOrder", mock.Anything, "u1", mock.MatchedBy(func(lines []domain.CartLine) bool {
		return len(lines) == 1 && lines[0].ProductID == "7" && lines[0].Quantity == 2
	}), "INR").Run(func(mock.Arguments) {
		raw, err := json.Marshal(CartItemInput{ProductID: "1"})
		if err != nil {
			return
		}
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/cart/items", bytes.NewReader(raw))
		if err != nil {
			return
		}
		req.Header.Set(SessionHeader, sid)
		if res, err := http.DefaultClient.Do(req); err == nil {
			addStatus = res.StatusCode
			res.Body.Close()
		}
	}).Return(&domain.Order{ID: "o1", UserID: "u1", Status: domain.DefaultOrderStatus}, nil).Once()

	res, _ = srv.do(t, http.MethodPost, "/api/v1/orders", sid, nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Equal(t, http.StatusOK, addStatus)

	res, _ = srv.do(t, http.MethodGet, "/api/v1/cart", sid, nil)
	body := decodeBody[CartResponse](t, res)
	require.Len(t, body.Items, 1, "only the ordered lines leave the cart")
	assert.Equal(t, "1", body.Items[0].ProductID)
	assert.Equal(t, 1, body.Count)
	srv.remote.AssertExpectations(t)
}

func TestHTTPHandler_OrderHistoryAndTracking(t *testing.T) {
	srv := setupTestChiServer(t)
	sid := srv.login(t, "u1")

	srv.remote.On("ListOrders", mock.Anything, "u1").Return([]domain.Order{{ID: "o2"}, {ID: "o1"}}, nil).Once()
	srv.remote.On("GetOrder", mock.Anything, "u1", "o1").Return(&domain.Order{ID: "o1", UserID: "u1", Status: "Shipped"}, nil).Once()
	srv.remote.On("GetOrder", mock.Anything, "u1", "o9").Return(nil, fmt.Errorf("Client.GetOrder: %w", remote.ErrOrderNotFound)).Once()

	res, _ := srv.do(t, http.MethodGet, "/api/v1/orders", sid, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 2, decodeBody[ListResponse[domain.Order]](t, res).Total)

	res, _ = srv.do(t, http.MethodGet, "/api/v1/orders/o1", sid, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Shipped", decodeBody[domain.Order](t, res).Status)

	res, _ = srv.do(t, http.MethodGet, "/api/v1/orders/o9", sid, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	srv.remote.AssertExpectations(t)
}
