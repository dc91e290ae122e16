package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is anything the health check can ping, e.g. the database or redis
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler handles health check requests
type HealthHandler struct {
	Version        string
	SessionBackend string
	Storage        string
	// ActiveSessions is optional; only the in-memory store can count cheaply
	ActiveSessions func() int
	deps           map[string]Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, sessionBackend, storage string) *HealthHandler {
	return &HealthHandler{
		Version:        version,
		SessionBackend: sessionBackend,
		Storage:        storage,
		deps:           map[string]Pinger{},
	}
}

// AddDependency registers a backend that must answer for the service to be healthy
func (h *HealthHandler) AddDependency(name string, p Pinger) {
	h.deps[name] = p
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := fiber.StatusOK
	deps := fiber.Map{}
	for name, p := range h.deps {
		if err := p.Ping(ctx); err != nil {
			deps[name] = "error: " + err.Error()
			status = "unhealthy"
			code = fiber.StatusServiceUnavailable
			continue
		}
		deps[name] = "connected"
	}

	sessions := fiber.Map{"backend": h.SessionBackend}
	if h.ActiveSessions != nil {
		sessions["active"] = h.ActiveSessions()
	}

	return c.Status(code).JSON(fiber.Map{
		"status":       status,
		"service":      "Pet Journey LINE Bot",
		"version":      h.Version,
		"storage":      h.Storage,
		"sessions":     sessions,
		"dependencies": deps,
	})
}
