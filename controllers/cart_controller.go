package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-bff/cart"
	"storefront-bff/fault"
	"storefront-bff/middleware"
	"storefront-bff/models"
)

// CartController exposes the mirrored cart. Every mutation answers with the
// full backend cart so the client and the badge count can never drift from
// server-computed totals.
type CartController struct {
	carts *cart.Synchronizer
}

func NewCartController(carts *cart.Synchronizer) *CartController {
	return &CartController{carts: carts}
}

func (cc *CartController) respond(c *gin.Context, mirror *models.Cart, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cart":      mirror,
		"itemCount": mirror.ItemCount(),
	})
}

func (cc *CartController) Get(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	mirror, err := cc.carts.Refresh(c.Request.Context(), sess)
	cc.respond(c, mirror, err)
}

func (cc *CartController) AddItem(c *gin.Context) {
	var req models.AddCartItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sess := middleware.CurrentSession(c)
	mirror, err := cc.carts.Add(c.Request.Context(), sess, req.ProductID, req.Quantity)
	cc.respond(c, mirror, err)
}

func (cc *CartController) UpdateItem(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, fault.New(http.StatusBadRequest, "Invalid item id", err))
		return
	}
	var req models.UpdateCartItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sess := middleware.CurrentSession(c)
	mirror, serr := cc.carts.SetQuantity(c.Request.Context(), sess, itemID, req.Quantity)
	cc.respond(c, mirror, serr)
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, fault.New(http.StatusBadRequest, "Invalid item id", err))
		return
	}
	sess := middleware.CurrentSession(c)
	mirror, serr := cc.carts.Remove(c.Request.Context(), sess, itemID)
	cc.respond(c, mirror, serr)
}

func (cc *CartController) Clear(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	mirror, err := cc.carts.Clear(c.Request.Context(), sess)
	cc.respond(c, mirror, err)
}
