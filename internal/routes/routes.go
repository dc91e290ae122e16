package routes

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/Ananth-NQI/petjourney-backend/internal/handlers"
	"github.com/Ananth-NQI/petjourney-backend/internal/middleware"
	"github.com/Ananth-NQI/petjourney-backend/internal/storage"
)

// Deps collects what the routes need
type Deps struct {
	WebhookPath string
	AdminAPIKey string
	Verifier    *middleware.SignatureVerifier
	Webhook     *handlers.WebhookHandler
	Health      *handlers.HealthHandler
	BookNow     *handlers.BookNowHandler
	Bookings    storage.Store
	Version     string
	Log         *slog.Logger
}

// SetupRoutes configures all routes
func SetupRoutes(app *fiber.App, d Deps) {
	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		endpoints := fiber.Map{
			"health":  "/health",
			"webhook": d.WebhookPath,
		}
		if d.BookNow != nil {
			endpoints["book_now"] = "/api/book-now"
		}
		if d.AdminAPIKey != "" {
			endpoints["api"] = "/api"
		}
		return c.JSON(fiber.Map{
			"message":   "Welcome to Pet Journey LINE Bot!",
			"version":   d.Version,
			"endpoints": endpoints,
		})
	})

	app.Get("/health", d.Health.Check)

	// LINE webhook; the signature check runs before the body is decoded
	app.All(d.WebhookPath, middleware.ValidateLineSignature(d.Verifier, d.Log), d.Webhook.Handle)

	api := app.Group("/api", cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.APIKeyHeader,
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// LIFF/web booking form; public, like the form page itself
	if d.BookNow != nil {
		api.Get("/book-now", d.BookNow.Handle)
		api.Post("/book-now", d.BookNow.Handle)
	}

	// Staff booking API
	if d.AdminAPIKey == "" || d.Bookings == nil {
		d.Log.Info("routes.staff_api_disabled", slog.String("reason", "ADMIN_API_KEY not set"))
		return
	}
	bookings := handlers.NewBookingHandler(d.Bookings)
	staff := middleware.RequireAPIKey(d.AdminAPIKey)
	api.Get("/bookings/stats", staff, bookings.Stats)
	api.Get("/bookings/:id", staff, bookings.GetBooking)
	api.Get("/users/:userID/bookings", staff, bookings.GetUserBookings)
}
