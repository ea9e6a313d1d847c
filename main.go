package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"trinity-schools/app/config"
	"trinity-schools/app/database"
	"trinity-schools/app/fees"
	"trinity-schools/app/routes/academic"
	"trinity-schools/app/routes/auth"
	feeroutes "trinity-schools/app/routes/fees"
	"trinity-schools/app/routes/pupils"
	snapshotroutes "trinity-schools/app/routes/snapshots"
	"trinity-schools/app/services"
	"trinity-schools/app/snapshots"
)

// customErrorHandler renders every error as the JSON error envelope
func customErrorHandler(c *fiber.Ctx, err error) error {
	// Status code defaults to 500
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a *fiber.Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}

// requestID tags each request with X-Request-ID and bounds it with a timeout
func requestID(c *fiber.Ctx) error {
	id := c.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	c.Set("X-Request-ID", id)
	c.Locals("reqid", id)

	ctx, cancel := context.WithTimeout(c.Context(), 60*time.Second)
	defer cancel()
	c.SetUserContext(ctx)
	return c.Next()
}

func setTimeZone(name string) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Warning: Failed to load %s location, falling back to UTC+3: %v", name, err)
		time.Local = time.FixedZone("EAT", 3*60*60)
	} else {
		time.Local = loc
	}
	log.Printf("Application time zone set to: %s", time.Local.String())
}

func main() {
	config.LoadEnv()
	setTimeZone(config.Conf.GetString("timezone"))
	if err := auth.CheckSecret(); err != nil {
		log.Fatal("Refusing to start: ", err)
	}

	// Initialize database
	config.InitDB()
	defer config.GetDB().Close()

	// Run database migrations
	if err := database.RunMigrations(config.GetDB()); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	repo := database.NewRepository(config.GetDB())

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Frozen snapshots never change, so Redis may keep them for a long time
	rdb := config.ConnectRedis(rootCtx)
	if rdb != nil {
		defer rdb.Close()
	}
	resolver := snapshots.NewResolver(snapshots.NewRedisStore(rdb, repo, config.AppConfig.Cache.TTL))

	feeCache := fees.NewCache(
		fees.WithTTL(config.AppConfig.Fees.CacheTTL),
		fees.WithSweepInterval(config.AppConfig.Fees.SweepInterval),
		fees.WithAttributeResolver(resolver),
	)
	feeCache.StartBackgroundMaintenance(rootCtx)

	// Start background scheduler
	scheduler, err := services.StartScheduler(repo, config.AppConfig.Cache.Cron, config.AppConfig.Cache.FreezeWindow)
	if err != nil {
		log.Fatal("Failed to start scheduler:", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestID)
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:reqid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := config.GetDB().PingContext(c.UserContext()); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "database unavailable")
		}
		return c.JSON(fiber.Map{"status": "ok", "fee_cache": feeCache.GetCacheStats()})
	})

	// Setup academic calendar routes
	academic.RegisterRoutes(app, academic.NewHandler(repo))

	// Setup fees routes
	feeroutes.SetupFeesRoutes(app, feeroutes.NewHandler(repo, feeCache, resolver))

	// Setup pupil history routes
	pupils.SetupPupilsRoutes(app, pupils.NewHandler(repo, resolver))

	// Setup snapshot routes
	snapshotroutes.SetupSnapshotsRoutes(app, snapshotroutes.NewHandler(repo))

	// Catch-all route for 404 errors (must be last)
	app.Use("*", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not found")
	})

	port := strings.TrimPrefix(config.Conf.GetString("port"), ":")
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := app.Listen(":" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	<-scheduler.Stop().Done()
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
}
