// Package router defines how HTTP routes are registered for the API. The
// request gate runs globally so every route passes through the same
// ordered checks; route groups only add what the gate does not cover
// (CORS, the public-catalog response cache).
package router

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/store-catalog/internal/auth"
	"github.com/iliyamo/store-catalog/internal/config"
	"github.com/iliyamo/store-catalog/internal/handler"
	mw "github.com/iliyamo/store-catalog/internal/middleware"
)

// RegisterRoutes wires middleware and all endpoint groups onto the Echo
// instance. rdb may be nil, which disables the public response cache.
func RegisterRoutes(
	e *echo.Echo,
	cfg config.Config,
	verifier auth.Verifier,
	products *handler.ProductHandler,
	admin *handler.AdminHandler,
	public *handler.PublicHandler,
	authH *handler.AuthHandler,
	rdb *redis.Client,
) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     corsOrigins(cfg.CORSOrigins),
		AllowCredentials: cfg.CORSOrigins != "*",
	}))
	// The gate runs after CORS so preflight is answered there; its own
	// OPTIONS short-circuit keeps the ordering explicit regardless.
	e.Use(mw.Gate(verifier))

	// Unauthenticated surface outside the API prefix.
	e.GET("/healthz", handler.Health)
	e.Static("/", cfg.StaticFolder)

	// Token endpoints (outside the API prefix; the gate passes them through).
	a := e.Group("/auth")
	a.POST("/login", authH.Login)
	a.POST("/refresh", authH.Refresh)
	a.POST("/logout", authH.Logout)

	api := e.Group("/api")

	// Products: listing is anonymous-capable (the gate exempts the exact
	// collection GET), everything else requires the gate's identity.
	api.GET("/products", products.List)
	api.POST("/products", products.Create)
	api.GET("/products/:id", products.Get)
	api.PUT("/products/:id", products.Update)
	api.DELETE("/products/:id", products.Delete)
	api.POST("/products/:id/approve", products.Approve)
	api.POST("/products/:id/reject", products.Reject)
	api.POST("/cleanup-old-products", products.Cleanup)

	// Public storefront, cached: the response never varies by caller.
	pub := api.Group("/public", mw.NewRedisCache(config.LoadCacheConfig(), rdb))
	pub.GET("/products", public.GetPublicProducts)

	// Admin user management.
	adm := api.Group("/admin")
	adm.POST("/users", admin.CreateUser)
	adm.GET("/users", admin.ListUsers)
	adm.PUT("/users/:uid", admin.UpdateUser)
}

// corsOrigins splits the configured origin list; "*" allows all.
func corsOrigins(raw string) []string {
	if raw == "" || raw == "*" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
