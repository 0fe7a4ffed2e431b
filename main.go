package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"game-economy-service/handlers"
	"game-economy-service/middleware"
	"game-economy-service/models"
	"game-economy-service/services"
	"game-economy-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-Competitor-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Competitor{},
		&models.CurrencyBalance{},
		&models.CurrencyTransaction{},
		&models.InventoryEntry{},
		&models.InventoryLog{},
		&models.ShopItem{},
		&models.TradeOffer{},
		&models.TradeItem{},
		&models.Season{},
		&models.SeasonTier{},
		&models.SeasonProgression{},
		&models.SeasonXpHistory{},
		&models.ClaimedReward{},
		&models.Milestone{},
		&models.CompetitorMilestone{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	events := services.NewEventBroker()
	ledgerService := services.NewLedgerService(db)
	inventoryService := services.NewInventoryService(db)
	milestoneService := services.NewMilestoneService(db, events)
	tradeService := services.NewTradeService(db, ledgerService, inventoryService, events)
	seasonService := services.NewSeasonService(db, ledgerService, inventoryService, milestoneService, events)
	shopService := services.NewShopService(db, ledgerService, inventoryService)

	if err := milestoneService.SeedDefaults(); err != nil {
		log.Fatal("failed to seed milestones:", err)
	}

	// --- CONFIGURE sync service details for the competitor mirror ---
	syncServiceURL := os.Getenv("SYNC_SERVICE_URL")
	if syncServiceURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("ECONOMY_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("ECONOMY_SERVICE_TOKEN environment variable not set")
	}
	// --- END CONFIG ---

	syncWorker := workers.NewCompetitorSyncWorker(db, ledgerService, syncServiceURL, "/api/v1/public/competitors", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Competitor Sync Worker...")
		syncWorker.Start(ctx)
	}()

	tradeService.StartExpiryScheduler()

	// ✅ Routes — enforced Gateway auth + consistent /s/ prefix
	handlers.SetupWalletRoutes(app, ledgerService)
	handlers.SetupTradeRoutes(app, tradeService)
	handlers.SetupSeasonRoutes(app, seasonService, milestoneService)
	handlers.SetupShopRoutes(app, shopService, inventoryService)
	handlers.SetupEventRoutes(app, events)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Competitor Sync Worker running")
	log.Println("✅ Trade expiry sweep running (every 1m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
