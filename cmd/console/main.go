// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/api/handlers"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/api/middleware"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/config"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/console"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/cron"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/db"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/gateway"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/maintenance"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/repository"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/session"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/socket"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/types"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/upstream"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/widget"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// ============================================
	// Load configuration
	// ============================================
	cfg := config.Load()

	// ============================================
	// Set Gin mode
	// ============================================
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Run Database Migrations FIRST
	// ============================================
	log.Println("🔄 Running database migrations...")
	migrationsPath := "./internal/db/migrations"
	if err := db.RunMigrations(cfg.DatabaseURL, migrationsPath); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database migrations completed")

	// ============================================
	// Initialize PostgreSQL
	// ============================================
	sqlDB, err := db.NewSQLDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to open sql DB: %v", err)
	}
	defer sqlDB.Close()
	log.Println("✅ Connected to PostgreSQL")

	auditRepo := repository.NewAuditRepository(sqlDB)

	// ============================================
	// Initialize Redis
	// ============================================
	redisDB, err := db.NewRedisDB(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisDB.Close()
	log.Println("⚡ Redis connected")

	// ============================================
	// Initialize Upstream Client & Gateway
	// ============================================
	upstreamTimeout := time.Duration(cfg.UpstreamTimeout) * time.Second
	up := upstream.NewClient(cfg.UpstreamBaseURL, upstreamTimeout)
	gw := gateway.New(cfg.UpstreamBaseURL, upstreamTimeout)
	log.Printf("🌐 Upstream: %s", cfg.UpstreamBaseURL)

	// ============================================
	// Initialize WebSocket Hub
	// ============================================
	hub := socket.NewHub()
	go hub.Run()
	broadcaster := socket.NewBroadcaster(hub)

	// WebSocket handler with JWT secret for self-authentication
	wsHandler := socket.NewHandler(hub, cfg.JWTSecret)
	log.Println("🔌 WebSocket hub initialized")

	// ============================================
	// Initialize Services
	// ============================================
	sessionSvc := session.NewService(cfg, up, session.NewRedisStore(redisDB))
	workspaces := console.NewManager(up, auditRepo, broadcaster)
	sessionSvc.OnTeardown(workspaces.Teardown)

	widgetRegistry := widget.NewRegistry(redisDB)
	maintenanceSvc := maintenance.NewService(up, redisDB, time.Duration(cfg.MaintenanceSnapshotTTL)*time.Minute)
	log.Println("✨ All services initialized")

	// ============================================
	// Initialize Handlers
	// ============================================
	h := handlers.NewHandlers(&handlers.Deps{
		Sessions:    sessionSvc,
		Workspaces:  workspaces,
		Widgets:     widgetRegistry,
		Maintenance: maintenanceSvc,
		Audit:       auditRepo,
		Broadcaster: broadcaster,
	})

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	cronScheduler := cron.NewScheduler(cfg, sessionSvc, workspaces, maintenanceSvc)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.Default()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorLogger())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173", "*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"timestamp":  time.Now(),
			"upstream":   cfg.UpstreamBaseURL,
			"websocket":  "active",
			"ws_clients": hub.GetConnectedClientsCount(),
			"workspaces": workspaces.Count(),
		})
	})

	// Gateway routes forward straight to the auction backend
	gw.Register(r)

	// API routes
	api := r.Group("/api")
	{
		// ============================================
		// Public routes (no auth required)
		// ============================================
		auth := api.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/logout", h.Auth.Logout)
		}

		// WebSocket route
		api.GET("/ws", wsHandler.HandleWebSocket)

		// ============================================
		// Protected routes (require auth middleware)
		// ============================================
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(sessionSvc))
		{
			protected.GET("/auth/me", h.Auth.Me)

			// User list widget
			list := protected.Group("/list")
			{
				list.GET("", h.List.Get)
				list.POST("/search", h.List.Search)
				list.POST("/load-more", h.List.LoadMore)
				list.POST("/sort", h.List.Sort)
				list.POST("/select", h.List.Select)
				list.POST("/select-all", h.List.SelectAll)
				list.POST("/toggle-status", h.List.ToggleStatus)
				list.POST("/publish-selection", h.List.PublishSelection)
				list.POST("/members/add", h.List.AddMembersToNote)
				list.POST("/members/remove", h.List.RemoveMembersFromNote)
			}

			// Note widget
			notes := protected.Group("/notes")
			{
				notes.GET("/current", h.Note.Current)
				notes.POST("/select", h.Note.SelectTag)
				notes.POST("/todos", h.Note.AddTodo)
				notes.PUT("/todos/:id/toggle", h.Note.ToggleTodo)
				notes.DELETE("/todos/:id", h.Note.RemoveTodo)
				notes.POST("/members/add", h.Note.AddMembers)
				notes.POST("/members/remove", h.Note.RemoveMembers)
				notes.POST("/members/display", h.Note.DisplayMembers)
				notes.POST("/members/search", h.Note.SearchMember)
			}

			// Tags
			tags := protected.Group("/tags")
			{
				tags.GET("", h.Note.ListTags)
				tags.POST("", h.Note.CreateTag)
				tags.DELETE("/:id", h.Note.DeleteTag)
			}

			// Widget registry
			widgets := protected.Group("/widgets")
			{
				widgets.GET("", h.Widget.List)
				widgets.GET("/all", h.Widget.ListAll)
				widgets.PUT("/:id/visibility", h.Widget.SetVisibility)
			}

			// SMS widget
			sms := protected.Group("/sms")
			{
				sms.GET("/recipients", h.SMS.Recipients)
				sms.POST("/broadcast", h.SMS.Broadcast)
			}

			// Maintenance panels and the audit trail are admin-only
			admin := protected.Group("")
			admin.Use(middleware.RequirePosition(types.PositionAdmin))
			{
				admin.GET("/maintenance/snapshot", h.Maintenance.Snapshot)
				admin.GET("/audit", h.Audit.List)
			}
		}
	}

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
