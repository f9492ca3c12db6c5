package controllers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"storefront-bff/clients"
	"storefront-bff/models"
)

// CatalogController serves the browse pages: home, product listing with the
// full backend filter set, product detail, and categories.
type CatalogController struct {
	gateway *clients.GatewayClient
}

func NewCatalogController(gateway *clients.GatewayClient) *CatalogController {
	return &CatalogController{gateway: gateway}
}

// Home aggregates the storefront landing data: first page of products and
// the category tree, fetched concurrently.
func (cc *CatalogController) Home(c *gin.Context) {
	ctx := c.Request.Context()

	productsQuery := url.Values{}
	for key, values := range c.Request.URL.Query() {
		for _, v := range values {
			productsQuery.Add(key, v)
		}
	}
	if productsQuery.Get("size") == "" {
		productsQuery.Set("size", "12")
	}

	type result struct {
		products   *models.Page[models.Product]
		categories []models.Category
		err        error
	}

	productsCh := make(chan result, 1)
	categoriesCh := make(chan result, 1)

	go func() {
		var page models.Page[models.Product]
		err := cc.gateway.DoJSON(ctx, http.MethodGet, "/api/products", productsQuery, nil, &page)
		productsCh <- result{products: &page, err: err}
	}()

	go func() {
		var cats []models.Category
		err := cc.gateway.DoJSON(ctx, http.MethodGet, "/api/categories", nil, nil, &cats)
		categoriesCh <- result{categories: cats, err: err}
	}()

	products := <-productsCh
	categories := <-categoriesCh

	if products.err != nil {
		respondError(c, products.err)
		return
	}
	if categories.err != nil {
		respondError(c, categories.err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":   products.products,
		"categories": categories.categories,
	})
}

// Products passes the listing filters through to the backend untouched:
// categoryId, search, minPrice, maxPrice, active, inStock, page, size, sort.
func (cc *CatalogController) Products(c *gin.Context) {
	var page models.Page[models.Product]
	if err := cc.gateway.DoJSON(c.Request.Context(), http.MethodGet, "/api/products", c.Request.URL.Query(), nil, &page); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (cc *CatalogController) ProductByID(c *gin.Context) {
	var product models.Product
	if err := cc.gateway.DoJSON(c.Request.Context(), http.MethodGet, "/api/products/"+c.Param("id"), nil, nil, &product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (cc *CatalogController) Categories(c *gin.Context) {
	var cats []models.Category
	if err := cc.gateway.DoJSON(c.Request.Context(), http.MethodGet, "/api/categories", nil, nil, &cats); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}
