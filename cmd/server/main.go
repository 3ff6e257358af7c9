package main // Entry point package

import (
	"log"  // Logging library
	"time" // Hold TTL conversion

	_ "github.com/joho/godotenv/autoload" // Load .env before config reads the environment
	"github.com/labstack/echo/v4"         // Echo web framework

	"github.com/aydinmert/tablebook/internal/config"
	"github.com/aydinmert/tablebook/internal/database"
	"github.com/aydinmert/tablebook/internal/handler"
	"github.com/aydinmert/tablebook/internal/queue"
	"github.com/aydinmert/tablebook/internal/repository"
	"github.com/aydinmert/tablebook/internal/router"
	"github.com/aydinmert/tablebook/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: with no client the response cache and rate
	// limiter silently disable themselves.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; cache and rate limiting disabled")
	}

	restaurantRepo := repository.NewRestaurantRepo(db)
	slotRepo := repository.NewSlotRepo(db)
	reservationRepo := repository.NewReservationRepo(db)

	lifecycle := service.NewLifecycle(db, restaurantRepo, slotRepo, reservationRepo,
		time.Duration(cfg.HoldTTLMin)*time.Minute)
	availability := service.NewAvailability(slotRepo, restaurantRepo)
	slotAdmin := service.NewSlotAdmin(db, slotRepo, reservationRepo)

	e := echo.New()
	e.Validator = router.NewValidator()

	router.RegisterRoutes(e)
	router.RegisterPublic(e, handler.NewPublicHandler(restaurantRepo, availability), rdb)
	router.RegisterDiner(e, handler.NewDinerHandler(lifecycle, reservationRepo), rdb, cfg.JWTSecret)
	router.RegisterAdmin(e,
		handler.NewAdminSlotHandler(slotAdmin),
		handler.NewAdminBookingHandler(lifecycle, reservationRepo),
		handler.NewAdminRestaurantHandler(restaurantRepo),
		cfg.JWTSecret)

	// Consume reservation events in the background; the consumer keeps
	// its own reconnect loop and never takes down the server.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
