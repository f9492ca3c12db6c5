package controllers

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/gin-gonic/gin"

	"storefront-bff/clients"
	"storefront-bff/models"
)

// AdminController backs the admin dashboard: catalog management, order
// management, and the sales analytics panels. Routes using it sit behind
// the admin gate.
type AdminController struct {
	gateway *clients.GatewayClient
}

func NewAdminController(gateway *clients.GatewayClient) *AdminController {
	return &AdminController{gateway: gateway}
}

func (ac *AdminController) CreateProduct(c *gin.Context) {
	var req models.ProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	var product models.Product
	if err := ac.gateway.DoJSON(c.Request.Context(), http.MethodPost, "/api/products", nil, clients.JSONBody(req), &product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (ac *AdminController) UpdateProduct(c *gin.Context) {
	var req models.ProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	var product models.Product
	if err := ac.gateway.DoJSON(c.Request.Context(), http.MethodPut, "/api/products/"+c.Param("id"), nil, clients.JSONBody(req), &product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (ac *AdminController) DeleteProduct(c *gin.Context) {
	if err := ac.gateway.DoJSON(c.Request.Context(), http.MethodDelete, "/api/products/"+c.Param("id"), nil, nil, nil); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadProductImage relays the multipart body to the backend untouched,
// preserving the original content type and its boundary.
func (ac *AdminController) UploadProductImage(c *gin.Context) {
	headers := http.Header{}
	if ct := c.GetHeader("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}

	resp, err := ac.gateway.Do(c.Request.Context(), http.MethodPost, "/api/products/"+c.Param("id")+"/image", nil, headers, c.Request.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := clients.CopyResponse(c.Writer, resp); err != nil {
		respondError(c, err)
	}
}

func (ac *AdminController) CreateCategory(c *gin.Context) {
	var req models.CategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	var category models.Category
	if err := ac.gateway.DoJSON(c.Request.Context(), http.MethodPost, "/api/categories", nil, clients.JSONBody(req), &category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (ac *AdminController) UpdateCategory(c *gin.Context) {
	var req models.CategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	var category models.Category
	if err := ac.gateway.DoJSON(c.Request.Context(), http.MethodPut, "/api/categories/"+c.Param("id"), nil, clients.JSONBody(req), &category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (ac *AdminController) DeleteCategory(c *gin.Context) {
	if err := ac.gateway.DoJSON(c.Request.Context(), http.MethodDelete, "/api/categories/"+c.Param("id"), nil, nil, nil); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Orders lists all orders with the backend's status/date/page filters.
func (ac *AdminController) Orders(c *gin.Context) {
	var page models.Page[models.Order]
	if err := ac.gateway.DoJSON(c.Request.Context(), http.MethodGet, "/api/orders", c.Request.URL.Query(), nil, &page); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ac *AdminController) UpdateOrderStatus(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing status"})
		return
	}
	query := url.Values{"status": []string{status}}

	var order models.Order
	if err := ac.gateway.DoJSON(c.Request.Context(), http.MethodPut, "/api/orders/"+c.Param("id")+"/status", query, nil, &order); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Dashboard aggregates the analytics panels in one response, fetching every
// panel concurrently. The date-range and threshold filters pass through to
// each analytics endpoint.
func (ac *AdminController) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	query := c.Request.URL.Query()

	var (
		mu     sync.Mutex
		panels = gin.H{}
		errs   []error
		wg     sync.WaitGroup
	)

	fetch := func(name, path string, out interface{}) {
		defer wg.Done()
		err := ac.gateway.DoJSON(ctx, http.MethodGet, path, query, nil, out)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
			return
		}
		panels[name] = out
	}

	var (
		totalRevenue  float64
		totalOrders   int64
		dailyRevenue  []models.RevenueData
		topByRevenue  []models.TopProduct
		topByQuantity []models.TopProduct
		lowStock      []models.Product
		activeUsers   int64
	)

	wg.Add(7)
	go fetch("totalRevenue", "/api/analytics/revenue/total", &totalRevenue)
	go fetch("totalOrders", "/api/analytics/orders/total", &totalOrders)
	go fetch("dailyRevenue", "/api/analytics/revenue/daily", &dailyRevenue)
	go fetch("topProductsByRevenue", "/api/analytics/top-products/revenue", &topByRevenue)
	go fetch("topProductsByQuantity", "/api/analytics/top-products/quantity", &topByQuantity)
	go fetch("lowStockProducts", "/api/analytics/products/low-stock", &lowStock)
	go fetch("activeUsers", "/api/analytics/users/active", &activeUsers)
	wg.Wait()

	if len(errs) > 0 {
		respondError(c, errs[0])
		return
	}

	c.JSON(http.StatusOK, panels)
}
