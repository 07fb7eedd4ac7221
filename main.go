package main

import (
	"log"
	"net/http"

	"checkin/attendance"
	"checkin/config"
	"checkin/database"
	"checkin/handlers"
	"checkin/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize JWT secret
	middleware.SetJWTSecret(cfg.JWTSecret)

	// Initialize database
	if err := database.Init(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize the attendance engine over the gorm store
	store := attendance.NewGormStore(database.GetDB())
	engine := attendance.NewEngine(store, attendance.SystemClock(), cfg.ManualOverwriteAllowed)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg)
	attendanceHandler := handlers.NewAttendanceHandler(cfg, engine)

	// Setup router
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	router.Get("/health", handlers.Health)

	// Public routes
	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
			r.Put("/profile", authHandler.UpdateProfile)
		})
	})

	// Attendance routes (all protected)
	router.Route("/api/attendance", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)

		r.Post("/checkin", attendanceHandler.CheckIn)
		r.Post("/checkout", attendanceHandler.CheckOut)
		r.Get("/today", attendanceHandler.Today)
		r.Get("/export", attendanceHandler.ExportCSV)
		r.Get("/", attendanceHandler.History)
		r.Get("/{id}", attendanceHandler.Get)
		r.Put("/{id}/checkout", attendanceHandler.ManualCheckOut)
		r.Delete("/{id}", attendanceHandler.Delete)
	})

	log.Printf("Server starting on port %s", cfg.ServerPort)
	log.Fatal(http.ListenAndServe(":"+cfg.ServerPort, router))
}
