package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/store-catalog/internal/auth"
	"github.com/iliyamo/store-catalog/internal/authz"
	"github.com/iliyamo/store-catalog/internal/config"
	"github.com/iliyamo/store-catalog/internal/database"
	"github.com/iliyamo/store-catalog/internal/handler"
	"github.com/iliyamo/store-catalog/internal/queue"
	"github.com/iliyamo/store-catalog/internal/repository"
	"github.com/iliyamo/store-catalog/internal/router"
	queuepub "github.com/iliyamo/store-catalog/internal/service"
)

func main() {
	_ = godotenv.Load() // load local .env in dev; absence is fine in prod
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	rdb := config.NewRedisClient() // nil when Redis is unreachable; caching degrades
	if rdb == nil {
		log.Printf("redis unavailable; public catalog cache disabled")
	}

	productRepo := repository.NewProductRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	// The policy engine owns the super-admin override and the two
	// creation-policy knobs; nothing else reads those env values.
	engine := authz.NewEngine(userRepo, cfg.MainAdminUID,
		authz.Role(cfg.ProductCreateRole), cfg.ProductDefaultStatus)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	products := handler.NewProductHandler(productRepo, engine)
	products.Publish = queuepub.PublishProductModerated
	admin := handler.NewAdminHandler(userRepo, engine, cfg.BcryptCost)
	public := &handler.PublicHandler{Products: productRepo}
	authH := handler.NewAuthHandler(cfg, userRepo, tokenRepo, verifier)

	// Background consumer mirrors moderation decisions into logs/.
	go func() {
		if err := queue.StartModerationConsumer(); err != nil {
			log.Printf("moderation consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e, cfg, verifier, products, admin, public, authH, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
