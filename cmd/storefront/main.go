package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"kalakriti-client/internal/app"
	"kalakriti-client/internal/config"
	"kalakriti-client/internal/domain/product"
	"kalakriti-client/internal/pkg/events"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}

	cfg := config.Load()

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("❌ Client failed to start: %v", err)
	}
	defer a.Close()

	a.Bus.Subscribe(func(ev events.Event, payload interface{}) {
		a.Logger.Info("session event", zap.String("event", string(ev)))
	})

	ctx := context.Background()

	a.Session.Restore(ctx)
	if u, ok := a.Session.CurrentUser(); ok {
		a.Logger.Info("session restored",
			zap.Int64("userId", u.ID),
			zap.String("role", string(u.Role)))
	}

	products, err := a.Catalog.Products(ctx, product.ListParams{})
	if err != nil {
		a.Logger.Error("failed to fetch catalog", zap.Error(err))
	} else {
		a.Logger.Info("catalog loaded",
			zap.Int("products", len(products)),
			zap.Int("cartItems", a.Cart.TotalItems()))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down storefront client...")
	log.Println("✅ Client stopped gracefully")
}
