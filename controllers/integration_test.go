package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront-bff/cart"
	"storefront-bff/clients"
	"storefront-bff/controllers"
	"storefront-bff/logger"
	"storefront-bff/middleware"
	"storefront-bff/models"
	"storefront-bff/routes"
	"storefront-bff/session"
	"storefront-bff/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// fakeShop is the upstream REST backend: auth, a cart the backend owns, and
// one placeable order.
type fakeShop struct {
	token       string
	revoked     bool
	admin       bool
	items       []models.CartItem
	nextOrderID int64
	orders      map[int64]models.Order
}

func newFakeShop() *fakeShop {
	return &fakeShop{token: "valid-token", nextOrderID: 100, orders: map[int64]models.Order{}}
}

func (f *fakeShop) cart() models.Cart {
	total := 0.0
	for _, item := range f.items {
		total += item.LineTotal
	}
	return models.Cart{ID: 1, UserID: 42, Items: f.items, TotalAmount: total, LastUpdated: time.Now().UTC()}
}

func (f *fakeShop) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/register":
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(models.User{ID: 42, Name: "Jane", Email: "jane@example.com", Roles: []string{"CUSTOMER"}})
			return
		case "/auth/login":
			var req models.LoginRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Password != "password123" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]interface{}{"status": 401, "message": "Invalid email or password"})
				return
			}
			json.NewEncoder(w).Encode(models.AuthResponse{AccessToken: f.token})
			return
		}

		if f.revoked || r.Header.Get("Authorization") != "Bearer "+f.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		roles := []string{"CUSTOMER"}
		if f.admin {
			roles = append(roles, "ADMIN")
		}

		switch {
		case r.URL.Path == "/auth/me":
			json.NewEncoder(w).Encode(models.User{ID: 42, Name: "Jane", Email: "jane@example.com", Roles: roles})
		case r.URL.Path == "/api/cart" && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(f.cart())
		case r.URL.Path == "/api/cart/items" && r.Method == http.MethodPost:
			var req models.AddCartItemRequest
			json.NewDecoder(r.Body).Decode(&req)
			f.items = append(f.items, models.CartItem{
				ID: 1, ProductID: req.ProductID, ProductName: "Product",
				Quantity: req.Quantity, PriceAtAddTime: 19.99, LineTotal: 19.99 * float64(req.Quantity),
			})
			json.NewEncoder(w).Encode(f.cart())
		case r.URL.Path == "/api/orders" && r.Method == http.MethodPost:
			order := models.Order{
				ID: f.nextOrderID, UserID: 42, TotalAmount: f.cart().TotalAmount,
				Status: models.OrderCreated, PaymentStatus: models.PaymentPending, CreatedAt: time.Now().UTC(),
			}
			f.orders[order.ID] = order
			f.nextOrderID++
			f.items = nil
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(order)
		case strings.HasPrefix(r.URL.Path, "/api/orders/") && r.Method == http.MethodGet:
			var id int64
			fmt.Sscanf(r.URL.Path, "/api/orders/%d", &id)
			order, ok := f.orders[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]interface{}{"status": 404, "message": "Order not found"})
				return
			}
			json.NewEncoder(w).Encode(order)
		case r.URL.Path == "/api/products":
			json.NewEncoder(w).Encode(models.Page[models.Product]{Content: []models.Product{{ID: 7, Name: "Product 7"}}, Size: 12, TotalElements: 1})
		case r.URL.Path == "/api/categories":
			json.NewEncoder(w).Encode([]models.Category{{ID: 1, Name: "Shoes", Active: true}})
		case r.URL.Path == "/api/analytics/revenue/total":
			json.NewEncoder(w).Encode(1234.56)
		case r.URL.Path == "/api/analytics/orders/total":
			json.NewEncoder(w).Encode(17)
		case r.URL.Path == "/api/analytics/revenue/daily":
			json.NewEncoder(w).Encode([]models.RevenueData{{Date: "2026-08-26", TotalRevenue: 1234.56, OrderCount: 17}})
		case r.URL.Path == "/api/analytics/top-products/revenue",
			r.URL.Path == "/api/analytics/top-products/quantity":
			json.NewEncoder(w).Encode([]models.TopProduct{{ProductID: 7, ProductName: "Product 7", TotalQuantitySold: 9, TotalRevenue: 179.91}})
		case r.URL.Path == "/api/analytics/products/low-stock":
			json.NewEncoder(w).Encode([]models.Product{{ID: 8, Name: "Product 8", StockQuantity: 2}})
		case r.URL.Path == "/api/analytics/users/active":
			json.NewEncoder(w).Encode(5)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

// client drives the BFF the way a browser would, carrying cookies forward.
type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func (cl *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	cl.t.Helper()
	var reader *strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(cl.t, err)
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	cl.router.ServeHTTP(w, req)

	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		cl.cookies = cookies
	}
	return w
}

func newBFF(t *testing.T, shop *fakeShop) *client {
	t.Helper()
	srv := httptest.NewServer(shop.handler())
	t.Cleanup(srv.Close)

	kv := store.NewMemory()
	gateway := clients.NewGatewayClient(srv.URL, 5*time.Second)
	sessions := session.NewManager(kv, gateway, "test-secret", time.Hour)
	gateway.UseRequest(session.BearerToken())
	gateway.OnUnauthorized(sessions.ExpireHook())
	carts := cart.NewSynchronizer(kv, gateway, time.Hour)

	router := gin.New()
	router.Use(middleware.Sessions(sessions))
	routes.Register(router, routes.Controllers{
		Auth:    controllers.NewAuthController(sessions, carts),
		Catalog: controllers.NewCatalogController(gateway),
		Cart:    controllers.NewCartController(carts),
		Orders:  controllers.NewOrderController(gateway, carts, kv),
		Admin:   controllers.NewAdminController(gateway),
	})

	return &client{t: t, router: router}
}

func login(t *testing.T, cl *client) {
	t.Helper()
	w := cl.do(http.MethodPost, "/auth/login", models.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLoginSetsSessionAndCartBadge(t *testing.T) {
	cl := newBFF(t, newFakeShop())
	login(t, cl)

	w := cl.do(http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, true, status["isAuthenticated"])
	assert.Equal(t, false, status["isAdmin"])
	assert.Equal(t, false, status["isLoading"])
	assert.Equal(t, float64(0), status["itemCount"])
}

func TestInvalidCredentialsSurfaceBackendMessage(t *testing.T) {
	cl := newBFF(t, newFakeShop())

	w := cl.do(http.MethodPost, "/auth/login", models.LoginRequest{Email: "jane@example.com", Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password")
	// Inline form error on the login view itself: no redirect hint.
	assert.NotContains(t, w.Body.String(), "redirect")
}

func TestLogoutEndsAnonymous(t *testing.T) {
	cl := newBFF(t, newFakeShop())
	login(t, cl)

	w := cl.do(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = cl.do(http.MethodGet, "/session", nil)
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, false, status["isAuthenticated"])
	assert.Equal(t, "anonymous", status["state"])
}

func TestMidSessionTokenRevocationRecoversGlobally(t *testing.T) {
	shop := newFakeShop()
	cl := newBFF(t, shop)
	login(t, cl)

	// The backend revokes the token; the very next call, whatever it is,
	// clears the session and points the client at login.
	shop.revoked = true
	w := cl.do(http.MethodGet, "/shop/cart", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"/login"`)

	w = cl.do(http.MethodGet, "/session", nil)
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, false, status["isAuthenticated"])
}

func TestCartMutationUpdatesBadgeCount(t *testing.T) {
	cl := newBFF(t, newFakeShop())
	login(t, cl)

	w := cl.do(http.MethodPost, "/shop/cart/items", models.AddCartItemRequest{ProductID: 7, Quantity: 2})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Cart      models.Cart `json:"cart"`
		ItemCount int         `json:"itemCount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.ItemCount)
	assert.InDelta(t, 2*19.99, resp.Cart.TotalAmount, 0.001)
}

func TestProtectedRouteRedirectsAnonymousToLogin(t *testing.T) {
	cl := newBFF(t, newFakeShop())

	w := cl.do(http.MethodGet, "/shop/cart", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestAdminRouteDowngradesNonAdminToHome(t *testing.T) {
	cl := newBFF(t, newFakeShop())
	login(t, cl)

	w := cl.do(http.MethodGet, "/admin/dashboard", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestOrderSuccessBannerShowsExactlyOnce(t *testing.T) {
	cl := newBFF(t, newFakeShop())
	login(t, cl)

	w := cl.do(http.MethodPost, "/shop/cart/items", models.AddCartItemRequest{ProductID: 7, Quantity: 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = cl.do(http.MethodPost, "/shop/orders", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var placed struct {
		Order    models.Order `json:"order"`
		NewOrder bool         `json:"newOrder"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))
	assert.True(t, placed.NewOrder)

	// First visit to the detail view claims the banner.
	path := fmt.Sprintf("/shop/orders/%d", placed.Order.ID)
	w = cl.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var first struct {
		NewOrder bool `json:"newOrder"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.True(t, first.NewOrder)

	// A refresh of the same order renders it plain.
	w = cl.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var second struct {
		NewOrder bool `json:"newOrder"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.False(t, second.NewOrder)
}

func TestCheckoutClearsCartMirror(t *testing.T) {
	cl := newBFF(t, newFakeShop())
	login(t, cl)

	w := cl.do(http.MethodPost, "/shop/cart/items", models.AddCartItemRequest{ProductID: 7, Quantity: 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = cl.do(http.MethodPost, "/shop/orders", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = cl.do(http.MethodGet, "/session", nil)
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, float64(0), status["itemCount"])
}

func TestHomeAggregatesProductsAndCategories(t *testing.T) {
	cl := newBFF(t, newFakeShop())
	login(t, cl)

	w := cl.do(http.MethodGet, "/shop/home", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var home struct {
		Products   models.Page[models.Product] `json:"products"`
		Categories []models.Category           `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &home))
	require.Len(t, home.Products.Content, 1)
	assert.Equal(t, "Product 7", home.Products.Content[0].Name)
	require.Len(t, home.Categories, 1)
	assert.Equal(t, "Shoes", home.Categories[0].Name)
}

func TestAdminDashboardAggregatesAnalytics(t *testing.T) {
	shop := newFakeShop()
	shop.admin = true
	cl := newBFF(t, shop)
	login(t, cl)

	w := cl.do(http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var panels map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &panels))
	for _, panel := range []string{
		"totalRevenue", "totalOrders", "dailyRevenue",
		"topProductsByRevenue", "topProductsByQuantity",
		"lowStockProducts", "activeUsers",
	} {
		assert.Contains(t, panels, panel)
	}

	var totalRevenue float64
	require.NoError(t, json.Unmarshal(panels["totalRevenue"], &totalRevenue))
	assert.InDelta(t, 1234.56, totalRevenue, 0.001)
}

func TestRegisterAutoLogin(t *testing.T) {
	cl := newBFF(t, newFakeShop())

	w := cl.do(http.MethodPost, "/auth/register", models.RegisterRequest{
		Name: "Jane", Email: "jane@example.com", Password: "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = cl.do(http.MethodGet, "/session", nil)
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, true, status["isAuthenticated"])
}
