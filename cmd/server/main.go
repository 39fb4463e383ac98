package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"medremind/internal/config"
	"medremind/internal/database"
	"medremind/internal/extraction"
	"medremind/internal/handlers"
	"medremind/internal/jobs"
	"medremind/internal/logging"
	"medremind/internal/middleware"
	"medremind/internal/services"
	"medremind/pkg/auth"
)

const version = "1.0.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️  No .env file found, using environment variables")
	}

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET is required")
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("❌ Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	jwtAuth, err := auth.NewJWTAuth(cfg.JWTSecret, 1*time.Hour, 30*24*time.Hour)
	if err != nil {
		log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
	}

	// Services
	userService := services.NewUserService(db)
	medicationService := services.NewMedicationService(db)
	settingsService := services.NewSettingsService(db)
	paymentService := services.NewPaymentService(cfg.DodoAPIKey, cfg.DodoWebhookSecret, cfg.DodoEnvironment, cfg.DodoReturnURL, db)

	reminderService, err := services.NewReminderService(services.LogNotifier{}, cfg.AnnounceDebounce)
	if err != nil {
		log.Fatalf("❌ Failed to initialize reminder scheduler: %v", err)
	}
	reminderService.Start()
	defer func() {
		if err := reminderService.Stop(); err != nil {
			log.Printf("⚠️ Error stopping reminder scheduler: %v", err)
		}
	}()

	// Meal-time defaults, optionally from a hot-reloaded YAML file
	if cfg.MealTimesFile != "" {
		if profile, err := config.LoadMealTimes(cfg.MealTimesFile); err != nil {
			log.Printf("⚠️  Failed to load meal times file, using defaults: %v", err)
		} else {
			settingsService.SetDefaultMealTimes(*profile)
			log.Printf("🍽️  Meal-time defaults loaded from %s", cfg.MealTimesFile)
		}
		go watchMealTimesFile(cfg.MealTimesFile, settingsService)
	}

	extractionClient := extraction.NewClient(cfg.ExtractionBaseURL, cfg.ExtractionAPIKey, cfg.ExtractionModel, cfg.ExtractionTimeout)
	scanService := services.NewScanService(extractionClient, medicationService, reminderService, paymentService, settingsService, db)

	// Rebuild reminder triggers for every stored medication
	if err := rescheduleAll(medicationService, reminderService); err != nil {
		log.Printf("⚠️ Failed to rebuild reminders on startup: %v", err)
	}

	// Background jobs
	jobRunner := jobs.NewRunner()
	jobRunner.Add(jobs.NewRefillCheckJob(medicationService, services.LogNotifier{}))
	jobRunner.Add(jobs.NewSubscriptionExpiryJob(paymentService))
	jobRunner.Start()
	defer jobRunner.Stop()

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, jwtAuth)
	medicationHandler := handlers.NewMedicationHandler(medicationService, scanService, reminderService, paymentService)
	scanHandler := handlers.NewScanHandler(scanService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	subscriptionHandler := handlers.NewSubscriptionHandler(paymentService)
	healthHandler := handlers.NewHealthHandler(db, jobRunner, version)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "MedRemind v" + version,
		ReadTimeout:  120 * time.Second, // extraction model can take a while on large scans
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    12 * 1024 * 1024, // 10MB scan upload plus multipart overhead
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("medremind")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes

	// Health check (public)
	app.Get("/health", healthHandler.Health)

	// Auth (public, rate limited by IP)
	authLimiter := limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
	})
	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", authLimiter, authHandler.Register)
	authGroup.Post("/login", authLimiter, authHandler.Login)
	authGroup.Post("/refresh", authLimiter, authHandler.Refresh)
	authGroup.Get("/me", middleware.Auth(jwtAuth), authHandler.Me)

	// Payment webhooks (public, signature verified)
	app.Post("/api/webhooks/dodo", subscriptionHandler.Webhook)

	// Authenticated API
	api := app.Group("/api", middleware.Auth(jwtAuth))

	meds := api.Group("/medications")
	meds.Get("/", medicationHandler.List)
	meds.Get("/low-supply", medicationHandler.LowSupply)
	meds.Post("/", medicationHandler.Create)
	meds.Get("/:id", medicationHandler.Get)
	meds.Put("/:id", medicationHandler.Update)
	meds.Delete("/:id", medicationHandler.Delete)
	meds.Post("/:id/dose", medicationHandler.RecordDose)
	meds.Post("/:id/refill", medicationHandler.Refill)
	meds.Get("/:id/history", medicationHandler.DoseHistory)

	// Rate limiter for scans (per user, on top of the tier quota)
	scanLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			userID, ok := c.Locals("user_id").(string)
			if !ok || userID == "" {
				return c.IP()
			}
			return userID
		},
	})
	api.Post("/scan", scanLimiter, scanHandler.Scan)
	api.Get("/scan/usage", scanHandler.Usage)

	api.Get("/settings/mealtimes", settingsHandler.GetMealTimes)
	api.Put("/settings/mealtimes", settingsHandler.SetMealTimes)

	api.Get("/subscription", subscriptionHandler.Get)
	api.Get("/subscription/plans", subscriptionHandler.Plans)
	api.Post("/subscription/checkout", subscriptionHandler.Checkout)

	log.Printf("🚀 MedRemind server starting on port %s", cfg.Port)
	log.Printf("🕐 Background jobs: refill check (daily 9 AM), subscription expiry (hourly)")

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// rescheduleAll rebuilds in-memory reminder triggers from the database.
// Triggers do not survive restarts; the medications table is the source of
// truth.
func rescheduleAll(medications *services.MedicationService, reminders *services.ReminderService) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	meds, err := medications.AllWithReminders(ctx)
	if err != nil {
		return err
	}

	for _, med := range meds {
		if err := reminders.Schedule(med); err != nil {
			log.Printf("⚠️ Failed to schedule reminders for %s: %v", med.ID, err)
		}
	}

	log.Printf("⏰ Rebuilt reminder triggers for %d medications", len(meds))
	return nil
}

// watchMealTimesFile watches the meal-times YAML for changes and reloads the
// defaults without a restart.
func watchMealTimesFile(filePath string, settings *services.SettingsService) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  Failed to create file watcher: %v", err)
		return
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		log.Printf("⚠️  Failed to get absolute path for %s: %v", filePath, err)
		watcher.Close()
		return
	}

	// Watch the directory containing the file (more reliable than watching the file directly)
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)
	if err := watcher.Add(dir); err != nil {
		log.Printf("⚠️  Failed to watch %s: %v", dir, err)
		watcher.Close()
		return
	}

	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}

			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}

				debounceTimer = time.AfterFunc(debounceDuration, func() {
					profile, err := config.LoadMealTimes(filePath)
					if err != nil {
						log.Printf("❌ Failed to reload meal times after file change: %v", err)
						return
					}
					settings.SetDefaultMealTimes(*profile)
					log.Printf("🔄 Meal-time defaults reloaded from %s", filePath)
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  File watcher error: %v", err)
		}
	}
}
