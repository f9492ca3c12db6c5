package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-bff/controllers"
	"storefront-bff/middleware"
)

// Controllers bundles the handlers wired at startup.
type Controllers struct {
	Auth    *controllers.AuthController
	Catalog *controllers.CatalogController
	Cart    *controllers.CartController
	Orders  *controllers.OrderController
	Admin   *controllers.AdminController
}

// Register attaches every route to the router. Protected groups sit behind
// the authorization gate; admin groups additionally require the ADMIN role.
func Register(r *gin.Engine, ctrl Controllers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
		auth.POST("/logout", ctrl.Auth.Logout)
		auth.GET("/me", ctrl.Auth.Me)
	}
	r.GET("/session", ctrl.Auth.Session)

	shop := r.Group("/shop")
	{
		shop.GET("/home", ctrl.Catalog.Home)
		shop.GET("/products", ctrl.Catalog.Products)
		shop.GET("/products/:id", ctrl.Catalog.ProductByID)
		shop.GET("/categories", ctrl.Catalog.Categories)
	}

	cart := r.Group("/shop/cart", middleware.Gate(middleware.RequireAuth))
	{
		cart.GET("", ctrl.Cart.Get)
		cart.POST("/items", ctrl.Cart.AddItem)
		cart.PUT("/items/:id", ctrl.Cart.UpdateItem)
		cart.DELETE("/items/:id", ctrl.Cart.RemoveItem)
		cart.DELETE("", ctrl.Cart.Clear)
	}

	orders := r.Group("/shop/orders", middleware.Gate(middleware.Requirement{Auth: true, ReturnTo: true}))
	{
		orders.POST("", ctrl.Orders.Place)
		orders.GET("", ctrl.Orders.MyOrders)
		orders.GET("/:id", ctrl.Orders.OrderByID)
		orders.PUT("/:id/cancel", ctrl.Orders.Cancel)
	}

	admin := r.Group("/admin", middleware.Gate(middleware.RequireAdmin))
	{
		admin.GET("/dashboard", ctrl.Admin.Dashboard)

		admin.POST("/products", ctrl.Admin.CreateProduct)
		admin.PUT("/products/:id", ctrl.Admin.UpdateProduct)
		admin.DELETE("/products/:id", ctrl.Admin.DeleteProduct)
		admin.POST("/products/:id/image", ctrl.Admin.UploadProductImage)

		admin.POST("/categories", ctrl.Admin.CreateCategory)
		admin.PUT("/categories/:id", ctrl.Admin.UpdateCategory)
		admin.DELETE("/categories/:id", ctrl.Admin.DeleteCategory)

		admin.GET("/orders", ctrl.Admin.Orders)
		admin.PUT("/orders/:id/status", ctrl.Admin.UpdateOrderStatus)
	}
}
