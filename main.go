package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-bff/cart"
	"storefront-bff/clients"
	"storefront-bff/config"
	"storefront-bff/controllers"
	"storefront-bff/logger"
	"storefront-bff/middleware"
	"storefront-bff/routes"
	"storefront-bff/session"
	"storefront-bff/store"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	redisClient := store.NewRedisClient(cfg.RedisURL)
	kv := store.NewRedis(redisClient)

	gateway := clients.NewGatewayClient(cfg.BackendURL, cfg.RequestTimeout)
	sessions := session.NewManager(kv, gateway, cfg.SessionSecret, cfg.SessionTTL)
	gateway.UseRequest(session.BearerToken())
	gateway.OnUnauthorized(sessions.ExpireHook())

	carts := cart.NewSynchronizer(kv, gateway, cfg.SessionTTL)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	router.Use(middleware.Sessions(sessions))

	routes.Register(router, routes.Controllers{
		Auth:    controllers.NewAuthController(sessions, carts),
		Catalog: controllers.NewCatalogController(gateway),
		Cart:    controllers.NewCartController(carts),
		Orders:  controllers.NewOrderController(gateway, carts, kv),
		Admin:   controllers.NewAdminController(gateway),
	})

	logger.Log.Info("Storefront BFF listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("backend", cfg.BackendURL),
	)
	if err := router.Run(cfg.ListenAddr); err != nil {
		logger.Log.Fatal("Server exited", zap.Error(err))
	}
}
