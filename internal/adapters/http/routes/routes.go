package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"bookclub-lms/internal/adapters/http/handlers"
	"bookclub-lms/internal/adapters/http/middleware"
	"bookclub-lms/internal/adapters/persistence/repositories"
	"bookclub-lms/internal/config"
	"bookclub-lms/internal/core/services"
)

// Setup wires repositories, services and handlers, and registers
// every route. The reminder service is constructed here too so it
// shares the repositories; the caller starts and stops it.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.ReminderService {
	// Repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	readerRepo := repositories.NewReaderRepository(db)
	loanRepo := repositories.NewLoanRepository(db)

	// Services
	notifyService := services.NewNotificationService()
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	bookService := services.NewBookService(bookRepo)
	readerService := services.NewReaderService(readerRepo, notifyService)
	lendingService := services.NewLendingService(loanRepo, bookRepo, readerRepo, cfg.Lending.Policy)
	reminderService := services.NewReminderService(
		loanRepo,
		notifyService,
		cfg.Lending.Policy,
		cfg.Lending.SweepSpec,
		cfg.Lending.DigestSpec,
	)

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	bookHandler := handlers.NewBookHandler(bookService)
	readerHandler := handlers.NewReaderHandler(readerService)
	lendingHandler := handlers.NewLendingHandler(lendingService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	bookRoutes := apiV1.Group("/books")
	bookRoutes.Use(middleware.AuthMiddleware(cfg))
	setupBookRoutes(bookRoutes, bookHandler)

	readerRoutes := apiV1.Group("/readers")
	readerRoutes.Use(middleware.AuthMiddleware(cfg))
	setupReaderRoutes(readerRoutes, readerHandler)

	lendingRoutes := apiV1.Group("/lending")
	lendingRoutes.Use(middleware.AuthMiddleware(cfg))
	setupLendingRoutes(lendingRoutes, lendingHandler)

	return reminderService
}

func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	router.Use(middleware.NoCacheHeaders())

	// Public routes. Login and refresh get the tighter rate limit.
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", middleware.AuthRateLimiter(), handler.Refresh)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Post("/register", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.Register)
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
}

func setupBookRoutes(router fiber.Router, handler *handlers.BookHandler) {
	// Any authenticated staff can browse the catalog
	router.Get("/", handler.List)
	router.Get("/genres", middleware.CacheControl(time.Hour), handler.Genres)
	router.Get("/:id", handler.GetByID)

	// Catalog changes need LIBRARIAN or ADMIN
	router.Post("/", middleware.LibrarianOrAdmin(), handler.Create)
	router.Put("/:id", middleware.LibrarianOrAdmin(), handler.Update)
	router.Delete("/:id", middleware.LibrarianOrAdmin(), handler.Delete)
}

func setupReaderRoutes(router fiber.Router, handler *handlers.ReaderHandler) {
	router.Get("/", handler.List)
	router.Get("/:identifier", handler.GetByIdentifier)

	router.Post("/", middleware.LibrarianOrAdmin(), handler.Create)
	router.Put("/:id", middleware.LibrarianOrAdmin(), handler.Update)
	router.Delete("/:id", middleware.LibrarianOrAdmin(), handler.Deactivate)
}

func setupLendingRoutes(router fiber.Router, handler *handlers.LendingHandler) {
	router.Post("/lend", handler.Lend)
	router.Put("/return/:id", handler.Return)

	router.Get("/book/:identifier", handler.ByBook)
	router.Get("/reader/:identifier", handler.ByReader)
	router.Get("/overdue", handler.Overdue)
	router.Get("/returned-overdue", handler.ReturnedOverdue)
	router.Get("/all", handler.All)
}
