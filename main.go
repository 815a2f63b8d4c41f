package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/cache"
	"taskboard/internal/config"
	"taskboard/internal/database"
	"taskboard/internal/handlers"
	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/internal/monitoring"
	"taskboard/internal/repositories"
	"taskboard/internal/services"
	"taskboard/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Application holds all application dependencies and state
type Application struct {
	Config      *config.Config
	DB          *gorm.DB
	DBPool      *database.DatabasePool
	Cache       cache.Cache
	CacheWarmer *cache.CacheWarmer
	Redis       *redis.Client
	Router      *gin.Engine
	Server      *http.Server

	// Services
	TaskService     services.TaskService
	ProjectService  services.ProjectService
	CommentService  services.CommentService
	SubtaskService  services.SubtaskService
	AuthService     services.AuthService
	UserService     services.UserService
	RegisterService services.RegisterService
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize application: %v", err)
	}

	app.setupRoutes()
	app.startServer()
}

func initializeApplication(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	log.Println("🚀 Initializing Taskboard Backend...")
	log.Printf("📋 Environment: %s", cfg.Server.Environment)

	pool, err := database.NewDatabasePool(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	app.DBPool = pool
	app.DB = pool.DB
	db := pool.DB

	log.Println("✅ Database connected and configured")

	migrationConfig := &repositories.MigrationConfig{
		MigrationsPath: "file://migrations",
		DBName:         cfg.Database.Name,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
	}
	if err := repositories.RunMigrations(db, migrationConfig); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	adminUser := utils.GetEnv("ADMIN_USERNAME", "admin")
	adminPass := utils.GetEnv("ADMIN_PASSWORD", "admin")
	if err := repositories.EnsureAdmin(db, adminUser, adminPass); err != nil {
		return nil, fmt.Errorf("admin bootstrap failed: %w", err)
	}

	if utils.GetEnv("SEED_DEMO_DATA", "false") == "true" {
		if err := repositories.SeedDemoData(db); err != nil {
			log.Printf("⚠️  Demo seed failed: %v", err)
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  Redis unavailable: %v (continuing with memory cache only)", err)
		redisClient = nil
	} else {
		app.Redis = redisClient
		log.Println("✅ Redis connected")
	}

	if redisClient != nil {
		redisCache := cache.NewRedisCacheFromClient(redisClient)
		app.Cache = cache.NewMultiLevelCache(redisCache)
		log.Println("✅ Multi-level cache initialized (Memory L1 + Redis L2)")
	} else {
		app.Cache = cache.NewMultiLevelCache(nil)
		log.Println("✅ Memory-only cache initialized")
	}

	// Services
	app.AuthService = services.NewAuthService(app.jwtSecret())
	app.UserService = services.NewUserService()
	app.RegisterService = services.NewRegisterService()
	app.ProjectService = services.NewProjectService()
	app.CommentService = services.NewCommentService()
	app.SubtaskService = services.NewSubtaskService()

	taskServiceImpl := services.NewTaskService()
	app.TaskService = services.NewCachedTaskService(taskServiceImpl, app.Cache)
	log.Println("✅ Cached task service initialized")

	app.CacheWarmer = cache.NewCacheWarmer(app.Cache, 15*time.Minute, 3)
	app.CacheWarmer.RegisterJob(cache.WarmupJob{
		Key: "projects:all",
		TTL: 15 * time.Minute,
		Loader: func() (interface{}, error) {
			return app.ProjectService.ListProjects(app.DB)
		},
	})
	app.CacheWarmer.Start()
	log.Println("✅ Cache warmer started")

	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		sqlDB, err := app.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if app.Redis != nil {
		monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		})
	}

	log.Println("✅ All services initialized")

	return app, nil
}

func (app *Application) setupRoutes() {
	r := gin.New()

	// Global middleware stack (order matters!)
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(monitoring.MetricsMiddleware())
	r.Use(middleware.RecoveryWithLog())
	r.Use(middleware.SecureHeaders())

	rateLimit := rate.Limit(float64(app.Config.RateLimit.RequestsPerMin) / 60.0)
	r.Use(middleware.RateLimiter(rateLimit, app.Config.RateLimit.BurstSize))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health and monitoring endpoints (no auth required)
	r.GET("/health", app.healthHandler())
	r.GET("/ready", app.readinessHandler())
	r.GET("/live", monitoring.LivenessHandler())
	r.GET("/metrics", monitoring.MetricsHandler())

	v1 := r.Group("/api/v1")

	// Public authentication routes
	authRoutes := v1.Group("/auth")
	{
		authHandler := handlers.NewAuthHandler(app.DB, app.AuthService)
		registrationHandler := handlers.NewRegisterHandler(app.DB, app.RegisterService)

		authRoutes.POST("/register", registrationHandler.Registration)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.Refresh)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.RequireAuth(app.jwtSecret()))
	{
		taskHandler := handlers.NewTaskHandler(app.DB, app.TaskService)
		commentHandler := handlers.NewCommentHandler(app.DB, app.CommentService)
		subtaskHandler := handlers.NewSubtaskHandler(app.DB, app.SubtaskService)

		taskRoutes := protected.Group("/tasks")
		{
			taskRoutes.POST("", taskHandler.CreateTask)
			taskRoutes.GET("", taskHandler.GetTasks)
			taskRoutes.GET("/:id", taskHandler.GetTaskByID)
			taskRoutes.PUT("/:id", taskHandler.UpdateTask)
			taskRoutes.DELETE("/:id", taskHandler.DeleteTask)
			taskRoutes.POST("/:id/complete", taskHandler.CompleteTask)
			taskRoutes.POST("/:id/mark_done", taskHandler.MarkDone)
			taskRoutes.POST("/:id/approve", taskHandler.ApproveTask)
			taskRoutes.POST("/:id/comments", commentHandler.AddComment)
			taskRoutes.POST("/:id/subtasks", subtaskHandler.AddSubtask)
		}

		protected.DELETE("/comments/:id", commentHandler.DeleteComment)

		subtaskRoutes := protected.Group("/subtasks")
		{
			subtaskRoutes.PUT("/:id", subtaskHandler.UpdateSubtask)
			subtaskRoutes.POST("/:id/toggle", subtaskHandler.ToggleSubtask)
			subtaskRoutes.DELETE("/:id", subtaskHandler.DeleteSubtask)
		}

		projectHandler := handlers.NewProjectHandler(app.DB, app.ProjectService)
		projectRoutes := protected.Group("/projects")
		{
			projectRoutes.POST("", projectHandler.CreateProject)
			projectRoutes.GET("", projectHandler.GetProjects)
			projectRoutes.GET("/:id", projectHandler.GetProjectByID)
			projectRoutes.PUT("/:id", projectHandler.UpdateProject)
			projectRoutes.DELETE("/:id", projectHandler.DeleteProject)
		}

		userHandler := handlers.NewUserHandler(app.DB, app.UserService)
		userRoutes := protected.Group("/users")
		{
			userRoutes.GET("", userHandler.GetUsers)
			userRoutes.GET("/profile", userHandler.GetProfile)
			userRoutes.PUT("/:user_id/access_level", userHandler.SetAccessLevel)
		}

		// Cache management routes (admin only)
		cacheHandler := handlers.NewCacheHandler(app.CacheWarmer, app.Cache)
		cacheRoutes := protected.Group("/cache")
		cacheRoutes.Use(app.adminOnlyMiddleware())
		{
			cacheRoutes.GET("/stats", cacheHandler.GetCacheStats)
			cacheRoutes.GET("/health", cacheHandler.GetCacheHealth)
			cacheRoutes.POST("/warm", cacheHandler.WarmCache)
			cacheRoutes.DELETE("/clear", app.clearCacheHandler())
			cacheRoutes.DELETE("/keys/:key", cacheHandler.EvictCacheKey)
		}
	}

	app.Router = r
}

func (app *Application) startServer() {
	addr := app.Config.GetServerAddr()

	app.Server = &http.Server{
		Addr:         addr,
		Handler:      app.Router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("🛑 Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.Server.Shutdown(ctx); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}

		app.cleanup()
		log.Println("✅ Server stopped gracefully")
	}()

	log.Printf("🚀 Server starting on %s", addr)
	log.Printf("📊 Metrics available at http://%s/metrics", addr)
	log.Printf("💚 Health check at http://%s/health", addr)

	if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}

func (app *Application) cleanup() {
	log.Println("🧹 Cleaning up resources...")

	if app.CacheWarmer != nil {
		app.CacheWarmer.Stop()
	}

	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			log.Printf("⚠️  Error closing cache: %v", err)
		}
	}

	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			log.Printf("⚠️  Error closing Redis: %v", err)
		}
	}

	if app.DBPool != nil {
		if err := app.DBPool.Close(); err != nil {
			log.Printf("⚠️  Error closing database: %v", err)
		}
	}

	log.Println("✅ Cleanup complete")
}

func (app *Application) jwtSecret() string {
	if app.Config.JWTSecret != "" {
		return app.Config.JWTSecret
	}
	return "default_secret_change_in_production"
}

func (app *Application) healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		health := map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "taskboard-backend",
		}

		if err := app.DBPool.Health(); err != nil {
			health["status"] = "unhealthy"
			health["database"] = "down"
			c.JSON(http.StatusServiceUnavailable, health)
			return
		}
		health["database"] = "up"
		health["database_pool"] = app.DBPool.Stats()

		if app.Redis != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := app.Redis.Ping(ctx).Err(); err != nil {
				health["redis"] = "down"
			} else {
				health["redis"] = "up"
			}
		}

		c.JSON(http.StatusOK, health)
	}
}

func (app *Application) readinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.DBPool.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"reason": "database not ready",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ready": true,
		})
	}
}

func (app *Application) adminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get("user_id")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		userID, err := uuid.FromString(fmt.Sprintf("%v", raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var user models.User
		if err := app.DB.First(&user, "id = ?", userID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Next()
	}
}

func (app *Application) clearCacheHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Cache.DeletePattern("*"); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		userID, _ := c.Get("user_id")
		log.Printf("Cache cleared by admin user: %v", userID)
		c.JSON(http.StatusOK, gin.H{"message": "cache cleared successfully"})
	}
}
