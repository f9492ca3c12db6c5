package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-bff/cart"
	"storefront-bff/clients"
	"storefront-bff/fault"
	"storefront-bff/logger"
	"storefront-bff/middleware"
	"storefront-bff/models"
	"storefront-bff/store"
)

// newOrderMarkerTTL bounds how long the one-time success banner can wait to
// be claimed after checkout.
const newOrderMarkerTTL = time.Hour

// OrderController covers checkout and order history. Placing an order sets
// a one-shot marker so the detail view shows its success banner exactly
// once; refreshing the same order afterwards renders it plain.
type OrderController struct {
	gateway *clients.GatewayClient
	carts   *cart.Synchronizer
	kv      store.KV
}

func NewOrderController(gateway *clients.GatewayClient, carts *cart.Synchronizer, kv store.KV) *OrderController {
	return &OrderController{gateway: gateway, carts: carts, kv: kv}
}

func markerKey(sessionID string, orderID int64) string {
	return fmt.Sprintf("order:new:%s:%d", sessionID, orderID)
}

func (oc *OrderController) Place(c *gin.Context) {
	// The payment reference is optional; an empty body places the order.
	var req models.PlaceOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, fault.New(http.StatusBadRequest, "Invalid request body", err))
			return
		}
	}

	ctx := c.Request.Context()
	var order models.Order
	if err := oc.gateway.DoJSON(ctx, http.MethodPost, "/api/orders", nil, clients.JSONBody(req), &order); err != nil {
		respondError(c, err)
		return
	}

	sess := middleware.CurrentSession(c)
	if err := oc.kv.Set(ctx, markerKey(sess.ID, order.ID), "1", newOrderMarkerTTL); err != nil {
		logger.Error(ctx, "Failed to set new-order marker", err)
	}

	// Checkout empties the server cart; bring the mirror along.
	if _, err := oc.carts.Refresh(ctx, sess); err != nil {
		logger.Warn(ctx, "Cart refresh after checkout failed")
	}

	c.JSON(http.StatusCreated, gin.H{"order": order, "newOrder": true})
}

func (oc *OrderController) OrderByID(c *gin.Context) {
	ctx := c.Request.Context()
	var order models.Order
	if err := oc.gateway.DoJSON(ctx, http.MethodGet, "/api/orders/"+c.Param("id"), nil, nil, &order); err != nil {
		respondError(c, err)
		return
	}

	sess := middleware.CurrentSession(c)
	_, err := oc.kv.GetDel(ctx, markerKey(sess.ID, order.ID))
	newOrder := err == nil

	c.JSON(http.StatusOK, gin.H{"order": order, "newOrder": newOrder})
}

func (oc *OrderController) MyOrders(c *gin.Context) {
	var page models.Page[models.Order]
	if err := oc.gateway.DoJSON(c.Request.Context(), http.MethodGet, "/api/orders/my-orders", c.Request.URL.Query(), nil, &page); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (oc *OrderController) Cancel(c *gin.Context) {
	var order models.Order
	if err := oc.gateway.DoJSON(c.Request.Context(), http.MethodPut, "/api/orders/"+c.Param("id")+"/cancel", nil, nil, &order); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
