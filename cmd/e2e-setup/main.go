package main

import (
	"context"
	"flag"
	"log"

	"content-marketplace/internal/config"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/repository"
	"content-marketplace/internal/infra/db/postgres"
	"content-marketplace/internal/infra/redis"
	"content-marketplace/internal/infra/web"
)

// This script sets up a clean, predictable database state for manual
// end-to-end testing: schema, seed products, seed coupons, and a buyer
// session token printed for curl use.
func main() {
	ctx := context.Background()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 5)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisClient.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	log.Println("[1/4] Wiping Redis cache...")
	if err := redisClient.FlushDB(ctx); err != nil {
		log.Fatalf("failed to flush redis: %v", err)
	}

	log.Println("[2/4] Resetting database schema...")
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `
		TRUNCATE products, coupons, transactions, buyer_subscriptions, entitlement_grants;
	`); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	log.Println("[3/4] Seeding products and coupons...")
	productRepo := postgres.NewProductRepo(pool)
	couponRepo := postgres.NewCouponRepo(pool)

	products := []*model.Product{
		{ID: "pkg-algebra", Name: "Algebra Package", Price: 100, AccessID: "algebra", DurationValue: 1, DurationUnit: model.DurationMonth},
		{ID: "pkg-geometry", Name: "Geometry Package", Price: 50, AccessID: "geometry", DurationValue: 1, DurationUnit: model.DurationYear},
		{ID: "pkg-full", Name: "Full Library", Price: 500, AccessID: "library", DurationUnit: model.DurationForever},
	}
	for _, p := range products {
		if err := productRepo.Save(ctx, repository.NoTX, p); err != nil {
			log.Fatalf("failed to seed product %s: %v", p.ID, err)
		}
	}

	one := int64(1)
	coupons := []*model.Coupon{
		{Code: "WELCOME10", ProductID: "pkg-algebra", Kind: model.DiscountPercent, Value: 10},
		{Code: "WELCOME10", ProductID: "pkg-geometry", Kind: model.DiscountFixed, Value: 15},
		{Code: "FREEBIE", ProductID: "pkg-geometry", Kind: model.DiscountPercent, Value: 150, UsageLimit: &one},
	}
	for _, c := range coupons {
		if err := couponRepo.Save(ctx, repository.NoTX, c); err != nil {
			log.Fatalf("failed to seed coupon %s: %v", c.Code, err)
		}
	}

	log.Println("[4/4] Minting a buyer session token...")
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TTL)
	token, err := auth.Mint("buyer-e2e")
	if err != nil {
		log.Fatalf("failed to mint token: %v", err)
	}

	log.Println("--- E2E Environment Ready ---")
	log.Printf("Authorization: Bearer %s", token)
}
