package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-bff/cart"
	"storefront-bff/logger"
	"storefront-bff/middleware"
	"storefront-bff/models"
	"storefront-bff/session"
)

// AuthController drives the session lifecycle for the browser: login,
// registration, logout, and the session probe the SPA shell polls before
// rendering anything authenticated.
type AuthController struct {
	sessions *session.Manager
	carts    *cart.Synchronizer
}

func NewAuthController(sessions *session.Manager, carts *cart.Synchronizer) *AuthController {
	return &AuthController{sessions: sessions, carts: carts}
}

func (a *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := a.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	// Authentication transition: pull the server cart into the mirror.
	sess := middleware.CurrentSession(c)
	if _, err := a.carts.Refresh(c.Request.Context(), sess); err != nil {
		logger.Warn(c, "Cart refresh after login failed")
	}

	c.JSON(http.StatusOK, user)
}

func (a *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := a.sessions.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	sess := middleware.CurrentSession(c)
	if _, err := a.carts.Refresh(c.Request.Context(), sess); err != nil {
		logger.Warn(c, "Cart refresh after registration failed")
	}

	c.JSON(http.StatusCreated, user)
}

func (a *AuthController) Logout(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	a.sessions.Logout(c.Request.Context(), sess)
	a.carts.Drop(c.Request.Context(), sess)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (a *AuthController) Me(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if user := sess.User(); user != nil {
		c.JSON(http.StatusOK, user)
		return
	}
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated", "redirect": "/login"})
}

// Session reports the settled session state plus the derived cart badge
// count, so the shell renders nothing authenticated while loading.
func (a *AuthController) Session(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	resp := gin.H{
		"state":           sess.State().String(),
		"isAuthenticated": sess.IsAuthenticated(),
		"isAdmin":         sess.IsAdmin(),
		"isLoading":       sess.IsLoading(),
		"itemCount":       a.carts.ItemCount(c.Request.Context(), sess),
	}
	if user := sess.User(); user != nil {
		resp["user"] = user
	}
	c.JSON(http.StatusOK, resp)
}
