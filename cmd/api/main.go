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

	"github.com/printready/proofdesk-backend/internal/api/handlers"
	"github.com/printready/proofdesk-backend/internal/api/middleware"
	"github.com/printready/proofdesk-backend/internal/config"
	"github.com/printready/proofdesk-backend/internal/cron"
	"github.com/printready/proofdesk-backend/internal/db"
	"github.com/printready/proofdesk-backend/internal/email"
	"github.com/printready/proofdesk-backend/internal/events"
	"github.com/printready/proofdesk-backend/internal/notification"
	"github.com/printready/proofdesk-backend/internal/repository"
	"github.com/printready/proofdesk-backend/internal/seed"
	"github.com/printready/proofdesk-backend/internal/service"
	"github.com/printready/proofdesk-backend/internal/socket"
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
	pg, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	defer pg.Pool.Close()
	log.Println("✅ Connected to PostgreSQL")

	// ============================================
	// Initialize Repositories
	// ============================================
	repos := repository.NewRepositories(pg.Pool)
	log.Println("📦 Repositories initialized")

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (continuing without cache)", err)
			redisDB = nil
		} else {
			defer redisDB.Close()
			log.Println("⚡ Redis cache enabled")
		}
	}

	// ============================================
	// Initialize Email Service
	// ============================================
	// Always constructed: Send no-ops without an SMTP host, and the
	// notification gate still has to advance notification states.
	emailSvc := email.NewService(&email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		UseTLS:   cfg.SMTPUseTLS,
	})
	if cfg.SMTPHost != "" {
		log.Println("📧 Email service initialized")
	} else {
		log.Println("⚠️  Email not configured (SMTP_HOST not set), deliveries will be skipped")
	}

	// ============================================
	// Initialize Event Dispatcher
	// ============================================
	dispatcher := events.NewDispatcher()
	go dispatcher.Run()
	defer dispatcher.Stop()

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
	// Seed Data (for development)
	// ============================================
	if cfg.Environment != "production" {
		log.Println("🌱 Seeding development data...")
		seed.SeedData(repos)
	}

	// ============================================
	// Initialize Notification Gate
	// ============================================
	notificationSvc := notification.NewService(
		repos.ProfileRepo,
		repos.PlaceholderRepo,
		repos.ProofRepo,
		emailSvc,
		cfg.OperatorEmail,
		cfg.AdminEmail,
		cfg.FrontendURL,
	)

	// ============================================
	// Initialize All Services
	// ============================================
	services := service.NewServices(&service.ServiceDeps{
		Config:     cfg,
		Repos:      repos,
		EmailSvc:   emailSvc,
		Dispatcher: dispatcher,
		Cache:      redisDB,
	})
	log.Println("✨ All services initialized")

	// ============================================
	// Wire Event Consumers
	// ============================================
	dispatcher.OnProofCreated(notificationSvc.HandleProofCreated)
	dispatcher.OnProofStatusChanged(func(ctx context.Context, ev events.ProofStatusChange) {
		notificationSvc.HandleProofStatusChanged(ctx, ev.Proof, ev.OldStatus, ev.NewStatus)
	})
	dispatcher.OnProofCreated(func(ctx context.Context, p *repository.Proof) {
		broadcaster.BroadcastProofCreated(p)
	})
	dispatcher.OnProofStatusChanged(func(ctx context.Context, ev events.ProofStatusChange) {
		broadcaster.BroadcastProofStatusChanged(ev.Proof, ev.OldStatus, ev.NewStatus)
	})
	dispatcher.OnSignedIn(func(ctx context.Context, ev events.SignedIn) {
		log.Printf("[Events] Signed in: %s (%s)", ev.DurableID, ev.Email)
	})

	// ============================================
	// Initialize Handlers
	// ============================================
	h := handlers.NewHandlers(services, broadcaster)

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	cronScheduler := cron.NewScheduler(
		services,
		repos.PlaceholderRepo,
		repos.ClaimRepo,
		repos.ProofRepo,
		cfg,
	)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.Default()
	r.Use(middleware.RequestLogger())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
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
			"database":   "connected",
			"cache":      getCacheStatus(redisDB),
			"websocket":  "active",
			"ws_clients": hub.GetConnectedClientsCount(),
			"email":      getEmailStatus(cfg.SMTPHost),
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// ============================================
		// Public routes (no auth required)
		// ============================================
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		// WebSocket route
		api.GET("/ws", wsHandler.HandleWebSocket)

		// ============================================
		// Protected routes (require auth middleware)
		// ============================================
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(services.Auth))
		{
			// User routes
			users := protected.Group("/users")
			{
				users.GET("/me", h.User.GetCurrentUser)
				users.PUT("/me", h.User.UpdateCurrentUser)
				users.GET("/:id", h.User.GetUser)
			}

			// Proof routes
			proofs := protected.Group("/proofs")
			{
				proofs.GET("/my", h.Proof.ListMyProofs)
				proofs.POST("", h.Proof.CreateProof)
				proofs.GET("/:id", h.Proof.GetProof)
				proofs.PATCH("/:id/status", h.Proof.UpdateProofStatus)
			}

			// Invitation routes
			invitations := protected.Group("/invitations")
			{
				invitations.POST("", h.Invitation.IssueInvitation)
				invitations.GET("/pending", h.Invitation.ListPending)
				invitations.POST("/accept", h.Invitation.AcceptInvitation)
			}

			// Ownership transfer
			protected.POST("/ownership/transfer", h.Transfer.TransferOwnership)

			// Admin routes
			admin := protected.Group("/admin")
			{
				admin.GET("/users", h.Admin.ListUsers)
				admin.PATCH("/users/:id/role", h.Admin.UpdateUserRole)
				admin.PATCH("/users/:id/status", h.Admin.UpdateUserStatus)
				admin.DELETE("/users/:id", h.Admin.DeleteIdentity)
				admin.DELETE("/placeholders/:id", h.Admin.PurgePlaceholder)
				admin.GET("/audit", h.Admin.ListAuditRecords)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func getCacheStatus(redisDB *db.RedisDB) string {
	if redisDB != nil {
		return "connected"
	}
	return "disabled"
}

func getEmailStatus(smtpHost string) string {
	if smtpHost != "" {
		return "configured"
	}
	return "disabled"
}
